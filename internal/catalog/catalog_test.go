package catalog

import (
	"testing"
	"time"

	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/pkg/errors"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func testSong(id uint64, title, artist, album string) *api.Song {
	return &api.Song{
		ID:       id,
		Title:    title,
		Artist:   artist,
		Album:    album,
		Genre:    "Rock",
		Year:     1999,
		TrackNum: int(id),
		Duration: 3 * time.Minute,
		FilePath: "/music/" + title + ".mp3",
		AddedAt:  time.Now(),
	}
}

func TestSaveAndLoadSongs(t *testing.T) {
	c := openTestCatalog(t)

	songs := []*api.Song{
		testSong(1, "One", "Artist A", "Album X"),
		testSong(2, "Two", "Artist A", "Album X"),
		testSong(3, "Three", "Artist B", "Album Y"),
	}
	if err := c.SaveSongs(songs); err != nil {
		t.Fatalf("SaveSongs() error = %v", err)
	}

	loaded, err := c.Songs()
	if err != nil {
		t.Fatalf("Songs() error = %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("loaded %d songs, want 3", len(loaded))
	}

	byID := make(map[uint64]*api.Song)
	for _, s := range loaded {
		byID[s.ID] = s
	}
	one, ok := byID[1]
	if !ok {
		t.Fatal("song 1 missing after load")
	}
	if one.Title != "One" || one.Artist != "Artist A" || one.Album != "Album X" {
		t.Errorf("song 1 = %q/%q/%q, want One/Artist A/Album X", one.Title, one.Artist, one.Album)
	}
	if one.Duration != 3*time.Minute {
		t.Errorf("Duration = %v, want 3m", one.Duration)
	}
}

func TestSaveSongsIsUpsert(t *testing.T) {
	c := openTestCatalog(t)

	song := testSong(7, "Old Title", "Artist", "Album")
	if err := c.SaveSongs([]*api.Song{song}); err != nil {
		t.Fatalf("SaveSongs() error = %v", err)
	}

	song.Title = "New Title"
	song.FilePath = "/music/moved.mp3"
	if err := c.SaveSongs([]*api.Song{song}); err != nil {
		t.Fatalf("SaveSongs() second call error = %v", err)
	}

	loaded, err := c.Songs()
	if err != nil {
		t.Fatalf("Songs() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d songs after upsert, want 1", len(loaded))
	}
	if loaded[0].Title != "New Title" || loaded[0].FilePath != "/music/moved.mp3" {
		t.Errorf("song = %q at %q, want updated fields", loaded[0].Title, loaded[0].FilePath)
	}
}

func TestKnownSignaturesAndPrune(t *testing.T) {
	c := openTestCatalog(t)

	if err := c.SaveSongs([]*api.Song{
		testSong(1, "One", "A", "X"),
		testSong(2, "Two", "A", "X"),
	}); err != nil {
		t.Fatalf("SaveSongs() error = %v", err)
	}

	known, err := c.KnownSignatures()
	if err != nil {
		t.Fatalf("KnownSignatures() error = %v", err)
	}
	if len(known) != 2 {
		t.Fatalf("known = %v, want 2 entries", known)
	}
	if known[1] != "/music/One.mp3" || known[2] != "/music/Two.mp3" {
		t.Fatalf("known paths = %v, want stored file paths", known)
	}

	if err := c.PruneSongs([]uint64{1}); err != nil {
		t.Fatalf("PruneSongs() error = %v", err)
	}
	known, err = c.KnownSignatures()
	if err != nil {
		t.Fatalf("KnownSignatures() after prune error = %v", err)
	}
	if _, pruned := known[1]; pruned {
		t.Errorf("song 1 still known after prune: %v", known)
	}
	if _, kept := known[2]; !kept {
		t.Errorf("song 2 missing after pruning song 1: %v", known)
	}
}

func TestRoots(t *testing.T) {
	c := openTestCatalog(t)

	if err := c.AddRoot("/music"); err != nil {
		t.Fatalf("AddRoot() error = %v", err)
	}
	if err := c.AddRoot("/music"); err != nil {
		t.Fatalf("AddRoot() duplicate error = %v", err)
	}
	if err := c.AddRoot("/other"); err != nil {
		t.Fatalf("AddRoot() error = %v", err)
	}

	roots, err := c.Roots()
	if err != nil {
		t.Fatalf("Roots() error = %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("Roots() = %v, want 2 entries", roots)
	}

	if err := c.RemoveRoot("/music"); err != nil {
		t.Fatalf("RemoveRoot() error = %v", err)
	}
	roots, _ = c.Roots()
	if len(roots) != 1 || roots[0] != "/other" {
		t.Errorf("Roots() after remove = %v, want [/other]", roots)
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	c := openTestCatalog(t)

	if err := c.SaveSongs([]*api.Song{
		testSong(1, "One", "A", "X"),
		testSong(2, "Two", "A", "X"),
		testSong(3, "Three", "A", "X"),
	}); err != nil {
		t.Fatalf("SaveSongs() error = %v", err)
	}

	id, err := c.CreatePlaylist("Favorites")
	if err != nil {
		t.Fatalf("CreatePlaylist() error = %v", err)
	}

	for _, songID := range []uint64{3, 1, 2} {
		if err := c.AddToPlaylist(id, songID); err != nil {
			t.Fatalf("AddToPlaylist(%d) error = %v", songID, err)
		}
	}

	ids, err := c.PlaylistSongs(id)
	if err != nil {
		t.Fatalf("PlaylistSongs() error = %v", err)
	}
	want := []uint64{3, 1, 2}
	if len(ids) != len(want) {
		t.Fatalf("PlaylistSongs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d = %d, want %d", i, ids[i], want[i])
		}
	}

	if err := c.RemoveFromPlaylist(id, 1); err != nil {
		t.Fatalf("RemoveFromPlaylist() error = %v", err)
	}
	ids, _ = c.PlaylistSongs(id)
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 2 {
		t.Errorf("PlaylistSongs() after remove = %v, want [3 2]", ids)
	}

	if err := c.DeletePlaylist(id); err != nil {
		t.Fatalf("DeletePlaylist() error = %v", err)
	}
	if _, err := c.PlaylistSongs(id); err != nil {
		t.Fatalf("PlaylistSongs() after delete error = %v", err)
	}
	playlists, err := c.Playlists()
	if err != nil {
		t.Fatalf("Playlists() error = %v", err)
	}
	if len(playlists) != 0 {
		t.Errorf("Playlists() = %v, want empty", playlists)
	}
}

func TestPlaylistNotFound(t *testing.T) {
	c := openTestCatalog(t)

	if err := c.DeletePlaylist(99); err != errors.ErrPlaylistNotFound {
		t.Errorf("DeletePlaylist(99) error = %v, want ErrPlaylistNotFound", err)
	}
	if err := c.RenamePlaylist(99, "x"); err != errors.ErrPlaylistNotFound {
		t.Errorf("RenamePlaylist(99) error = %v, want ErrPlaylistNotFound", err)
	}
	if err := c.AddToPlaylist(99, 1); err != errors.ErrPlaylistNotFound {
		t.Errorf("AddToPlaylist(99) error = %v, want ErrPlaylistNotFound", err)
	}
}

func TestHistoryTrimsAndDeduplicates(t *testing.T) {
	c := openTestCatalog(t)

	for i := 0; i < historyLimit+10; i++ {
		if err := c.RecordPlay(uint64(i % 5)); err != nil {
			t.Fatalf("RecordPlay() error = %v", err)
		}
	}

	recent, err := c.RecentlyPlayed(10)
	if err != nil {
		t.Fatalf("RecentlyPlayed() error = %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("RecentlyPlayed() = %v, want 5 distinct songs", recent)
	}
	// 60 plays cycle 0..4, so the last play is song 4 and the order walks
	// backwards from there.
	if recent[0] != 4 {
		t.Errorf("most recent = %d, want 4", recent[0])
	}

	var total int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM history`).Scan(&total); err != nil {
		t.Fatalf("count history: %v", err)
	}
	if total != historyLimit {
		t.Errorf("history rows = %d, want %d", total, historyLimit)
	}
}

func TestSessionState(t *testing.T) {
	c := openTestCatalog(t)

	got, err := c.SessionValue("view")
	if err != nil {
		t.Fatalf("SessionValue() error = %v", err)
	}
	if got != "" {
		t.Errorf("SessionValue() on empty table = %q, want \"\"", got)
	}

	if err := c.SetSessionValue("view", "library"); err != nil {
		t.Fatalf("SetSessionValue() error = %v", err)
	}
	if err := c.SetSessionValue("view", "playlists"); err != nil {
		t.Fatalf("SetSessionValue() overwrite error = %v", err)
	}

	got, err = c.SessionValue("view")
	if err != nil {
		t.Fatalf("SessionValue() error = %v", err)
	}
	if got != "playlists" {
		t.Errorf("SessionValue() = %q, want playlists", got)
	}
}
