package requests

// Request is the closed set of download request kinds. Each variant carries
// exactly the identity needed to locate its content; strategies operate on
// their narrowed variant directly.
type Request interface {
	// ImdbID returns the content identity shared by all variants
	ImdbID() string

	isRequest()
}

// MovieRequest describes a single movie
type MovieRequest struct {
	Title  string
	IMDBID string
}

// SeasonRequest describes a full season, along with the episode numbers
// actually wanted from it
type SeasonRequest struct {
	IMDBID   string
	Season   int
	Episodes []int
}

// EpisodeRequest describes one episode of one season
type EpisodeRequest struct {
	IMDBID  string
	Season  int
	Episode int
}

// ImdbID returns the movie's IMDB identifier
func (r MovieRequest) ImdbID() string { return r.IMDBID }

// ImdbID returns the show's IMDB identifier
func (r SeasonRequest) ImdbID() string { return r.IMDBID }

// ImdbID returns the show's IMDB identifier
func (r EpisodeRequest) ImdbID() string { return r.IMDBID }

func (MovieRequest) isRequest()   {}
func (SeasonRequest) isRequest()  {}
func (EpisodeRequest) isRequest() {}
