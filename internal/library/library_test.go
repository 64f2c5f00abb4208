package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/pkg/errors"
)

func libSong(id uint64, title, artist, album, genre string, track int) *api.Song {
	return &api.Song{
		ID:       id,
		Title:    title,
		Artist:   artist,
		Album:    album,
		Genre:    genre,
		TrackNum: track,
		FilePath: "/music/" + title + ".mp3",
	}
}

func testLibrary() *Library {
	l := New()
	l.Load([]*api.Song{
		libSong(1, "Alpha", "Artist A", "Album X", "Rock", 2),
		libSong(2, "Beta", "Artist A", "Album X", "Rock", 1),
		libSong(3, "Gamma", "Artist B", "Album Y", "Jazz", 1),
	})
	return l
}

func TestSongLookup(t *testing.T) {
	l := testLibrary()

	song, err := l.Song(2)
	if err != nil {
		t.Fatalf("Song(2) error = %v", err)
	}
	if song.Title != "Beta" {
		t.Errorf("Song(2).Title = %q, want Beta", song.Title)
	}

	if _, err := l.Song(99); err != errors.ErrTrackNotFound {
		t.Errorf("Song(99) error = %v, want ErrTrackNotFound", err)
	}
}

func TestAllSongsSorted(t *testing.T) {
	l := testLibrary()

	songs := l.AllSongs()
	if len(songs) != 3 {
		t.Fatalf("AllSongs() returned %d songs, want 3", len(songs))
	}
	// Artist A's album X by track number, then artist B.
	want := []uint64{2, 1, 3}
	for i, song := range songs {
		if song.ID != want[i] {
			t.Errorf("song %d has ID %d, want %d", i, song.ID, want[i])
		}
	}
}

func TestSongsByAlbumOrderedByTrack(t *testing.T) {
	l := testLibrary()

	songs := l.SongsByAlbum("Album X")
	if len(songs) != 2 {
		t.Fatalf("SongsByAlbum() returned %d songs, want 2", len(songs))
	}
	if songs[0].ID != 2 || songs[1].ID != 1 {
		t.Errorf("album order = [%d %d], want [2 1]", songs[0].ID, songs[1].ID)
	}
}

func TestArtistsAndAlbums(t *testing.T) {
	l := testLibrary()

	artists := l.Artists()
	if len(artists) != 2 || artists[0] != "Artist A" || artists[1] != "Artist B" {
		t.Errorf("Artists() = %v, want sorted [Artist A, Artist B]", artists)
	}
	albums := l.Albums()
	if len(albums) != 2 || albums[0] != "Album X" || albums[1] != "Album Y" {
		t.Errorf("Albums() = %v, want sorted [Album X, Album Y]", albums)
	}
}

func TestSearchRanksTitleMatchesFirst(t *testing.T) {
	l := New()
	l.Load([]*api.Song{
		libSong(1, "Blue Night", "Someone", "Album", "", 1),
		libSong(2, "Other Song", "Blue Band", "Album", "", 2),
	})

	results := l.Search("blue")
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].ID != 1 {
		t.Errorf("first result = song %d, want title match song 1", results[0].ID)
	}

	if got := l.Search("nomatch"); len(got) != 0 {
		t.Errorf("Search(nomatch) = %v, want empty", got)
	}
}

func TestRemoveSongCleansIndices(t *testing.T) {
	l := testLibrary()

	if err := l.RemoveSong(3); err != nil {
		t.Fatalf("RemoveSong(3) error = %v", err)
	}
	if _, err := l.Song(3); err != errors.ErrTrackNotFound {
		t.Errorf("Song(3) after remove error = %v, want ErrTrackNotFound", err)
	}
	for _, artist := range l.Artists() {
		if artist == "Artist B" {
			t.Error("Artist B still indexed after its only song was removed")
		}
	}
	if err := l.RemoveSong(3); err != errors.ErrTrackNotFound {
		t.Errorf("RemoveSong(3) twice error = %v, want ErrTrackNotFound", err)
	}
}

func TestAddSongReplacesExistingEntry(t *testing.T) {
	l := testLibrary()

	moved := libSong(1, "Alpha", "Artist A", "Album X", "Rock", 2)
	moved.FilePath = "/music/moved/Alpha.mp3"
	l.AddSong(moved)

	song, err := l.Song(1)
	if err != nil {
		t.Fatalf("Song(1) error = %v", err)
	}
	if song.FilePath != "/music/moved/Alpha.mp3" {
		t.Errorf("FilePath = %q, want the replacement path", song.FilePath)
	}
	if got := l.SongsByArtist("Artist A"); len(got) != 2 {
		t.Errorf("SongsByArtist returned %d songs after replace, want 2", len(got))
	}
	if l.Len() != 3 {
		t.Errorf("Len() = %d after replace, want 3", l.Len())
	}
}

func TestScanReportsMovedFiles(t *testing.T) {
	dir := t.TempDir()
	data := make([]byte, 4*1024)
	for i := range data {
		data[i] = byte(i * 3)
	}
	original := filepath.Join(dir, "a.mp3")
	if err := os.WriteFile(original, data, 0644); err != nil {
		t.Fatal(err)
	}

	l := New()
	diff := l.Scan(context.Background(), []string{dir}, map[uint64]string{})
	if len(diff.Added) != 1 {
		t.Fatalf("initial scan Added = %d, want 1", len(diff.Added))
	}
	id := diff.Added[0].ID
	known := map[uint64]string{id: original}

	// Unchanged rescan reports nothing.
	diff = l.Scan(context.Background(), []string{dir}, known)
	if len(diff.Added)+len(diff.Updated)+len(diff.Removed) != 0 {
		t.Fatalf("unchanged rescan diff = %+v, want empty", diff)
	}

	renamed := filepath.Join(dir, "b.mp3")
	if err := os.Rename(original, renamed); err != nil {
		t.Fatal(err)
	}

	diff = l.Scan(context.Background(), []string{dir}, known)
	if len(diff.Updated) != 1 {
		t.Fatalf("rescan after move Updated = %d, want 1", len(diff.Updated))
	}
	if diff.Updated[0].ID != id {
		t.Errorf("updated ID = %d, want %d", diff.Updated[0].ID, id)
	}
	if diff.Updated[0].FilePath != renamed {
		t.Errorf("updated path = %q, want %q", diff.Updated[0].FilePath, renamed)
	}
	if len(diff.Added) != 0 || len(diff.Removed) != 0 {
		t.Errorf("move reported as add/remove: %+v", diff)
	}

	song, err := l.Song(id)
	if err != nil {
		t.Fatalf("Song(%d) error = %v", id, err)
	}
	if song.FilePath != renamed {
		t.Errorf("library path = %q after move, want %q", song.FilePath, renamed)
	}
}

func TestSignatureStableAcrossRename(t *testing.T) {
	dir := t.TempDir()
	data := make([]byte, 200*1024)
	for i := range data {
		data[i] = byte(i * 7)
	}

	original := filepath.Join(dir, "a.mp3")
	if err := os.WriteFile(original, data, 0644); err != nil {
		t.Fatal(err)
	}
	sig1, err := Signature(original)
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}

	renamed := filepath.Join(dir, "b.mp3")
	if err := os.Rename(original, renamed); err != nil {
		t.Fatal(err)
	}
	sig2, err := Signature(renamed)
	if err != nil {
		t.Fatalf("Signature() after rename error = %v", err)
	}
	if sig1 != sig2 {
		t.Errorf("signature changed on rename: %x vs %x", sig1, sig2)
	}
}

func TestSignatureDistinguishesContentAndSize(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	base := make([]byte, 200*1024)
	for i := range base {
		base[i] = byte(i)
	}
	sigBase, err := Signature(write("base.mp3", base))
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}

	changed := make([]byte, len(base))
	copy(changed, base)
	changed[100] ^= 0xFF
	sigChanged, err := Signature(write("changed.mp3", changed))
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}
	if sigBase == sigChanged {
		t.Error("signatures collide for different leading bytes")
	}

	// Same prefix, different tail length: only the size term differs.
	longer := append(append([]byte{}, base...), 0x01)
	sigLonger, err := Signature(write("longer.mp3", longer))
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}
	if sigBase == sigLonger {
		t.Error("signatures collide for different file sizes")
	}
}

func TestSignatureMissingFile(t *testing.T) {
	if _, err := Signature(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Error("Signature() on missing file succeeded, want error")
	}
}
