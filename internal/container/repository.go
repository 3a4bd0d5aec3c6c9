package container

import (
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/podpulse/internal/library"
	"github.com/serroba/podpulse/internal/smartlink"
	"github.com/serroba/podpulse/internal/store"
	"go.uber.org/zap"
)

// RepositoryPackage provides the SmartLink and library repositories for the
// configured backend, plus the domain services that sit on them.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (smartlink.Repository, error) {
		opts := options(i)

		switch opts.Store {
		case StorePostgres:
			pg := do.MustInvoke[*Postgres](i)
			repo := smartlink.Repository(store.NewPostgresStore(pg.Pool))

			if opts.CacheTTL > 0 {
				client := do.MustInvoke[redis.UniversalClient](i)
				repo = store.NewRedisCacheRepository(
					repo, client, time.Duration(opts.CacheTTL)*time.Second, do.MustInvoke[*zap.Logger](i),
				)
			}

			return repo, nil
		case StoreRedis:
			return store.NewRedisStore(do.MustInvoke[redis.UniversalClient](i)), nil
		default:
			return store.NewMemoryStore(), nil
		}
	})

	do.Provide(i, func(i *do.Injector) (library.Repository, error) {
		if options(i).Store == StorePostgres {
			return store.NewLibraryPostgresStore(do.MustInvoke[*Postgres](i).Pool), nil
		}

		// Redis has no library schema; bookmarks and reviews stay in memory.
		return store.NewLibraryMemoryStore(), nil
	})

	do.Provide(i, func(i *do.Injector) (*smartlink.Resolver, error) {
		return smartlink.NewResolver(
			do.MustInvoke[smartlink.Repository](i),
			do.MustInvoke[*zap.Logger](i),
			smartlink.WithTimeout(options(i).Timeout()),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*smartlink.Creator, error) {
		generate, err := nanoid.Standard(options(i).IDLength)
		if err != nil {
			return nil, err
		}

		return smartlink.NewCreator(do.MustInvoke[smartlink.Repository](i), generate), nil
	})

	do.Provide(i, func(i *do.Injector) (*library.Service, error) {
		return library.NewService(do.MustInvoke[library.Repository](i)), nil
	})
}
