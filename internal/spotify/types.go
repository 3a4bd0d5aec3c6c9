package spotify

// Show is the catalog item served to clients.
type Show struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Publisher   string `json:"publisher,omitempty"`
}

type RankedShow struct {
	Rank int `json:"rank"`
	Show
}

type Playlist struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Image     string `json:"image"`
}

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Followers   int    `json:"followers"`
	ProfileURL  string `json:"profileUrl"`
	ImageURL    string `json:"imageUrl"`
}

type image struct {
	URL string `json:"url"`
}

func firstImage(images []image) string {
	if len(images) == 0 {
		return ""
	}

	return images[0].URL
}

type rawShow struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Publisher   string  `json:"publisher"`
	Images      []image `json:"images"`
}

func (r rawShow) toShow() Show {
	return Show{
		ID:          r.ID,
		Title:       r.Name,
		Description: r.Description,
		Image:       firstImage(r.Images),
		Publisher:   r.Publisher,
	}
}

type searchResponse struct {
	Shows *struct {
		Items []*rawShow `json:"items"`
	} `json:"shows"`
}

type featuredResponse struct {
	Playlists *struct {
		Items []*struct {
			ID     string  `json:"id"`
			Name   string  `json:"name"`
			Images []image `json:"images"`
			Owner  struct {
				DisplayName string `json:"display_name"`
			} `json:"owner"`
		} `json:"items"`
	} `json:"playlists"`
}

type rawUser struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Images      []image `json:"images"`
	Followers   struct {
		Total int `json:"total"`
	} `json:"followers"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}
