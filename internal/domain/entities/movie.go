package entities

// MaxBackdrops is the number of backdrops shown for a target movie.
const MaxBackdrops = 3

// MovieStub is a discover result before its images are resolved.
type MovieStub struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
}

// Movie is a catalog item with its backdrop references attached.
// It is not modified after construction.
type Movie struct {
	ID            int64    // catalog id
	Title         string   // display title
	PosterPath    string   // poster file path, relative to the image CDN
	BackdropPaths []string // unlocalized backdrops, at most MaxBackdrops
}

// NewMovie builds a Movie from a stub and its backdrops, truncating to MaxBackdrops.
func NewMovie(stub MovieStub, backdrops []string) *Movie {
	n := min(len(backdrops), MaxBackdrops)
	paths := make([]string, n)
	copy(paths, backdrops[:n])

	return &Movie{
		ID:            stub.ID,
		Title:         stub.Title,
		PosterPath:    stub.PosterPath,
		BackdropPaths: paths,
	}
}

// Usable reports whether the movie has at least one backdrop to show.
func (m *Movie) Usable() bool {
	return m != nil && len(m.BackdropPaths) > 0
}
