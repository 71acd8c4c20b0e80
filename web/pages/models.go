// Package pages holds the HTML views of the site as templ components.
package pages

//go:generate go tool templ generate

// Option is a value/label pair for a select field.
type Option struct {
	Value string
	Label string
}

type Link struct {
	Label string
	Href  string
}

type GalleryListItem struct {
	Title        string
	Description  string
	Href         string
	EditHref     string
	NewAlbumHref string
	Meta         string
	Albums       []Link
}

type GalleryForm struct {
	Heading         string
	Action          string
	SubmitLabel     string
	SlugEditable    bool
	Title           string
	Slug            string
	Description     string
	ShowImageCounts bool
	Errors          map[string]string

	// Set on the edit page only.
	DeleteAction string
}

// AlbumTile is one album in a gallery grid.
type AlbumTile struct {
	Title      string
	Href       string
	CoverURL   string
	CountLabel string
	Date       string
}

type GalleryViewData struct {
	Title       string
	Description string
	Albums      []AlbumTile
}

type CoverChoice struct {
	AssetID  string
	Title    string
	ThumbURL string
	Selected bool
}

// ImageRow links an album image to its edit page.
type ImageRow struct {
	Title    string
	ThumbURL string
	EditHref string
}

type AlbumForm struct {
	Heading      string
	Intro        string
	Action       string
	SubmitLabel  string
	SlugEditable bool
	Title        string
	Slug         string
	Description  string

	CoverMode     string
	SortImagesBy  string
	ImageLinksTo  string
	HideAlbumDate bool
	HideImageDate bool
	CoverModes    []Option
	SortModes     []Option
	LinkTargets   []Option

	Errors map[string]string

	// Set on the edit page only.
	ViewHref       string
	UploadAction   string
	CoverAction    string
	DeleteAction   string
	MaxUploadFiles int
	CoverChoices   []CoverChoice
	Images         []ImageRow
	Notice         string
}

type ImageTile struct {
	Title    string
	Href     string
	ThumbURL string
}

type AlbumViewData struct {
	GalleryTitle string
	GalleryHref  string
	Title        string
	Description  string
	CountLabel   string
	Date         string
	Images       []ImageTile
	Page         int
	TotalPages   int
	PrevPageHref string
	NextPageHref string
}

type ImageViewData struct {
	Title       string
	Caption     string
	FileURL     string
	Width       int
	Height      int
	Date        string
	AlbumTitle  string
	AlbumHref   string
	PrevHref    string
	NextHref    string
	FooterShown bool
	Position    int
	Count       int
}

// ImageForm is the editor's view of a single image.
type ImageForm struct {
	Action       string
	DeleteAction string
	AlbumHref    string
	AlbumTitle   string
	Title        string
	Caption      string
	ThumbURL     string
	Errors       map[string]string
}

func anySelected(choices []CoverChoice) bool {
	for _, c := range choices {
		if c.Selected {
			return true
		}
	}
	return false
}
