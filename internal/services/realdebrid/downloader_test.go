package realdebrid

import (
	"context"
	"fmt"
	"testing"

	"github.com/konkolorado/jellbrid/internal/requests"
	"github.com/konkolorado/jellbrid/internal/services/torrentio"
	"github.com/sirupsen/logrus"
)

type resolverCall struct {
	Hash string
	Op   string // "count", "at_least" or "match"
	N    int
}

// fakeResolver resolves bundles from a fixed matching-file count per hash
type fakeResolver struct {
	files map[string]int
	calls []resolverCall
}

func (f *fakeResolver) BundleWithFileCount(_ context.Context, hash string, count int, _ []FileFilter) (*Bundle, error) {
	f.calls = append(f.calls, resolverCall{Hash: hash, Op: "count", N: count})
	if n := f.files[hash]; n == count && n > 0 {
		return bundleOf(hash, n), nil
	}
	return nil, nil
}

func (f *fakeResolver) BundleWithFileCountAtLeast(_ context.Context, hash string, minCount int, _ []FileFilter) (*Bundle, error) {
	f.calls = append(f.calls, resolverCall{Hash: hash, Op: "at_least", N: minCount})
	if n := f.files[hash]; n > 0 && n >= minCount {
		return bundleOf(hash, n), nil
	}
	return nil, nil
}

func (f *fakeResolver) BundleWithFileMatch(_ context.Context, hash string, _ []FileFilter) (*Bundle, error) {
	f.calls = append(f.calls, resolverCall{Hash: hash, Op: "match", N: 1})
	if f.files[hash] > 0 {
		return bundleOf(hash, 1), nil
	}
	return nil, nil
}

func (f *fakeResolver) CacheSize() int {
	return len(f.files)
}

func bundleOf(hash string, n int) *Bundle {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i+1)
	}
	return &Bundle{Hash: hash, FileIDs: ids}
}

// fakeTransfers records remote mutations; torrent ids are derived from the
// hash so failures can be keyed per candidate
type fakeTransfers struct {
	addCalls    []string
	selectCalls []string
	deleteCalls []string
	failAdd     map[string]bool
	failSelect  map[string]bool
}

func (f *fakeTransfers) AddMagnet(_ context.Context, hash string) (*AddTorrentResponse, error) {
	f.addCalls = append(f.addCalls, hash)
	if f.failAdd[hash] {
		return &AddTorrentResponse{}, nil
	}
	return &AddTorrentResponse{ID: "t-" + hash}, nil
}

func (f *fakeTransfers) SelectFiles(_ context.Context, torrentID string, _ []string) (*SelectFilesResult, error) {
	f.selectCalls = append(f.selectCalls, torrentID)
	if f.failSelect[torrentID] {
		return &SelectFilesResult{Error: "wrong_parameter"}, nil
	}
	return &SelectFilesResult{}, nil
}

func (f *fakeTransfers) DeleteTorrent(_ context.Context, torrentID string) error {
	f.deleteCalls = append(f.deleteCalls, torrentID)
	return nil
}

func newTestDownloader(resolver *fakeResolver, transfers *fakeTransfers, devMode bool) *Downloader {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewDownloader(resolver, transfers, devMode, logger)
}

func stream(hash, title string) torrentio.Stream {
	return torrentio.Stream{InfoHash: hash, Title: title}
}

func TestDownloadMovieNoBundlesNoRegistration(t *testing.T) {
	resolver := &fakeResolver{files: map[string]int{}}
	transfers := &fakeTransfers{}
	d := newTestDownloader(resolver, transfers, false)

	req := requests.MovieRequest{Title: "Some Movie", IMDBID: "tt100"}
	streams := []torrentio.Stream{
		stream("aaa", "Some.Movie.2020.1080p.mkv"),
		stream("bbb", "Some.Movie.2020.720p.mkv"),
	}

	id, ok := d.DownloadMovie(context.Background(), req, streams)
	if ok || id != "" {
		t.Fatalf("Expected no result, got (%q, %v)", id, ok)
	}
	if len(transfers.addCalls) != 0 {
		t.Errorf("Expected no magnet registrations, got %d", len(transfers.addCalls))
	}
	if len(resolver.calls) != 2 {
		t.Errorf("Expected both candidates resolved, got %d calls", len(resolver.calls))
	}
}

func TestDownloadMovieShortTitleYearPrefilter(t *testing.T) {
	resolver := &fakeResolver{files: map[string]int{"with-year": 1, "no-year": 1}}
	transfers := &fakeTransfers{}
	d := newTestDownloader(resolver, transfers, false)

	req := requests.MovieRequest{Title: "Up", IMDBID: "tt200"}
	streams := []torrentio.Stream{
		stream("no-year", "Up 1080p BluRay"),
		stream("with-year", "Up 2009 1080p BluRay"),
	}

	id, ok := d.DownloadMovie(context.Background(), req, streams)
	if !ok || id != "t-with-year" {
		t.Fatalf("Expected t-with-year, got (%q, %v)", id, ok)
	}
	for _, call := range resolver.calls {
		if call.Hash == "no-year" {
			t.Error("Candidate without a release year should not reach resolution")
		}
	}
}

func TestDownloadMovieRestrictionFailureCleansUpAndAdvances(t *testing.T) {
	resolver := &fakeResolver{files: map[string]int{"aaa": 1, "bbb": 1}}
	transfers := &fakeTransfers{failSelect: map[string]bool{"t-aaa": true}}
	d := newTestDownloader(resolver, transfers, false)

	req := requests.MovieRequest{Title: "Some Movie", IMDBID: "tt300"}
	streams := []torrentio.Stream{
		stream("aaa", "Some.Movie.2020.1080p.mkv"),
		stream("bbb", "Some.Movie.2020.720p.mkv"),
	}

	id, ok := d.DownloadMovie(context.Background(), req, streams)
	if !ok || id != "t-bbb" {
		t.Fatalf("Expected t-bbb after failed first candidate, got (%q, %v)", id, ok)
	}
	if len(transfers.deleteCalls) != 1 || transfers.deleteCalls[0] != "t-aaa" {
		t.Errorf("Expected exactly one removal of t-aaa, got %v", transfers.deleteCalls)
	}
}

func TestDownloadMovieRegistrationFailureAdvances(t *testing.T) {
	resolver := &fakeResolver{files: map[string]int{"aaa": 1, "bbb": 1}}
	transfers := &fakeTransfers{failAdd: map[string]bool{"aaa": true}}
	d := newTestDownloader(resolver, transfers, false)

	req := requests.MovieRequest{Title: "Some Movie", IMDBID: "tt301"}
	streams := []torrentio.Stream{
		stream("aaa", "Some.Movie.2020.1080p.mkv"),
		stream("bbb", "Some.Movie.2020.720p.mkv"),
	}

	id, ok := d.DownloadMovie(context.Background(), req, streams)
	if !ok || id != "t-bbb" {
		t.Fatalf("Expected t-bbb, got (%q, %v)", id, ok)
	}
	if len(transfers.deleteCalls) != 0 {
		t.Errorf("Registration failure should not trigger removal, got %v", transfers.deleteCalls)
	}
}

func TestDownloadSeasonFirstPassAcceptsThreshold(t *testing.T) {
	// 5 requested episodes, pass-1 threshold 4: A's 3 files are rejected,
	// B's 5 files accepted, second pass never entered
	resolver := &fakeResolver{files: map[string]int{"a": 3, "b": 5}}
	transfers := &fakeTransfers{}
	d := newTestDownloader(resolver, transfers, false)

	req := requests.SeasonRequest{IMDBID: "tt1", Season: 1, Episodes: []int{1, 2, 3, 4, 5}}
	streams := []torrentio.Stream{
		stream("a", "Show.S01.Complete.1080p"),
		stream("b", "Show.S01.1080p.WEB-DL"),
	}

	id, ok := d.DownloadSeason(context.Background(), req, streams)
	if !ok || id != "t-b" {
		t.Fatalf("Expected t-b, got (%q, %v)", id, ok)
	}

	want := []resolverCall{
		{Hash: "a", Op: "at_least", N: 4},
		{Hash: "b", Op: "at_least", N: 4},
	}
	if len(resolver.calls) != len(want) {
		t.Fatalf("Expected %d resolver calls, got %v", len(want), resolver.calls)
	}
	for i, call := range resolver.calls {
		if call != want[i] {
			t.Errorf("Call %d: expected %+v, got %+v", i, want[i], call)
		}
	}
}

func TestDownloadSeasonSecondPassRestartsFromFirstCandidate(t *testing.T) {
	resolver := &fakeResolver{files: map[string]int{"a": 3, "b": 2}}
	transfers := &fakeTransfers{}
	d := newTestDownloader(resolver, transfers, false)

	req := requests.SeasonRequest{IMDBID: "tt2", Season: 1, Episodes: []int{1, 2, 3, 4, 5}}
	streams := []torrentio.Stream{
		stream("a", "Show.S01.Complete.1080p"),
		stream("b", "Show.Season 1.720p"),
	}

	id, ok := d.DownloadSeason(context.Background(), req, streams)
	if !ok || id != "t-a" {
		t.Fatalf("Expected t-a from the second pass, got (%q, %v)", id, ok)
	}

	want := []resolverCall{
		{Hash: "a", Op: "at_least", N: 4},
		{Hash: "b", Op: "at_least", N: 4},
		{Hash: "a", Op: "at_least", N: 0},
	}
	if len(resolver.calls) != len(want) {
		t.Fatalf("Expected %d resolver calls, got %v", len(want), resolver.calls)
	}
	for i, call := range resolver.calls {
		if call != want[i] {
			t.Errorf("Call %d: expected %+v, got %+v", i, want[i], call)
		}
	}
}

func TestDownloadSeasonSkipsNonSeasonNames(t *testing.T) {
	// The single-episode candidate would qualify on file count but must
	// never reach resolution
	resolver := &fakeResolver{files: map[string]int{"episode": 5, "pack": 5}}
	transfers := &fakeTransfers{}
	d := newTestDownloader(resolver, transfers, false)

	req := requests.SeasonRequest{IMDBID: "tt3", Season: 1, Episodes: []int{1, 2, 3, 4, 5}}
	streams := []torrentio.Stream{
		stream("episode", "Show.S01E03.1080p"),
		stream("pack", "Show.S01.1080p"),
	}

	id, ok := d.DownloadSeason(context.Background(), req, streams)
	if !ok || id != "t-pack" {
		t.Fatalf("Expected t-pack, got (%q, %v)", id, ok)
	}
	for _, call := range resolver.calls {
		if call.Hash == "episode" {
			t.Error("Single-episode candidate should not reach resolution")
		}
	}
}

func TestDownloadSeasonThresholdTruncates(t *testing.T) {
	// int(0.8 * 3) == 2, so 2 of 3 episodes passes the first pass
	resolver := &fakeResolver{files: map[string]int{"a": 2}}
	transfers := &fakeTransfers{}
	d := newTestDownloader(resolver, transfers, false)

	req := requests.SeasonRequest{IMDBID: "tt4", Season: 2, Episodes: []int{1, 2, 3}}
	streams := []torrentio.Stream{stream("a", "Show.S02.Complete")}

	id, ok := d.DownloadSeason(context.Background(), req, streams)
	if !ok || id != "t-a" {
		t.Fatalf("Expected t-a, got (%q, %v)", id, ok)
	}
	if resolver.calls[0].N != 2 {
		t.Errorf("Expected pass-1 threshold 2, got %d", resolver.calls[0].N)
	}
}

func TestDownloadEpisodeExactSingleFile(t *testing.T) {
	resolver := &fakeResolver{files: map[string]int{"bbb": 1}}
	transfers := &fakeTransfers{}
	d := newTestDownloader(resolver, transfers, false)

	req := requests.EpisodeRequest{IMDBID: "tt5", Season: 1, Episode: 2}
	streams := []torrentio.Stream{
		stream("aaa", "Show.S01E02.720p"),
		stream("bbb", "Show.S01E02.1080p"),
	}

	id, ok := d.DownloadEpisode(context.Background(), req, streams)
	if !ok || id != "t-bbb" {
		t.Fatalf("Expected t-bbb, got (%q, %v)", id, ok)
	}
	for _, call := range resolver.calls {
		if call.Op != "count" || call.N != 1 {
			t.Errorf("Episode strategy must request exactly one file, got %+v", call)
		}
	}
}

func TestDownloadEpisodeFromBundleUsesBestMatch(t *testing.T) {
	resolver := &fakeResolver{files: map[string]int{"pack": 8}}
	transfers := &fakeTransfers{}
	d := newTestDownloader(resolver, transfers, false)

	req := requests.EpisodeRequest{IMDBID: "tt6", Season: 1, Episode: 2}
	streams := []torrentio.Stream{stream("pack", "Show.S01.Complete.1080p")}

	id, ok := d.DownloadEpisodeFromBundle(context.Background(), req, streams)
	if !ok || id != "t-pack" {
		t.Fatalf("Expected t-pack, got (%q, %v)", id, ok)
	}
	if len(resolver.calls) != 1 || resolver.calls[0].Op != "match" {
		t.Errorf("Expected a single best-match resolution, got %v", resolver.calls)
	}
}

func TestDevModeSkipsAllRemoteCalls(t *testing.T) {
	resolver := &fakeResolver{files: map[string]int{"aaa": 1}}
	transfers := &fakeTransfers{}
	d := newTestDownloader(resolver, transfers, true)

	req := requests.MovieRequest{Title: "Some Movie", IMDBID: "tt7"}
	streams := []torrentio.Stream{stream("aaa", "Some.Movie.2020.1080p.mkv")}

	id, ok := d.DownloadMovie(context.Background(), req, streams)
	if !ok || id != "" {
		t.Fatalf("Expected the empty-identifier sentinel, got (%q, %v)", id, ok)
	}
	if len(transfers.addCalls) != 0 || len(transfers.selectCalls) != 0 {
		t.Errorf("Dev mode must not touch the remote service: add=%v select=%v",
			transfers.addCalls, transfers.selectCalls)
	}
}

func TestDownloadDispatchesByVariant(t *testing.T) {
	resolver := &fakeResolver{files: map[string]int{"aaa": 1}}
	transfers := &fakeTransfers{}
	d := newTestDownloader(resolver, transfers, false)

	streams := []torrentio.Stream{stream("aaa", "Show.S01E02.1080p.mkv")}

	var req requests.Request = requests.EpisodeRequest{IMDBID: "tt8", Season: 1, Episode: 2}
	id, ok := d.Download(context.Background(), req, streams)
	if !ok || id != "t-aaa" {
		t.Fatalf("Expected t-aaa, got (%q, %v)", id, ok)
	}
}
