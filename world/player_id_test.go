package world

import "testing"

func TestPlayerIDComposeDecomposeRoundTrip(t *testing.T) {
	cases := []PlayerID{
		{Src: 0, ID: 1},
		{Src: 1, ID: 0},
		{Src: 255, ID: (uint64(1) << 56) - 1},
		{Src: 7, ID: 123456789},
	}
	for _, p := range cases {
		src, id := Decompose(Compose(p.Src, p.ID))
		if src != p.Src || id != p.ID {
			t.Errorf("decompose(compose(%d,%d)) = (%d,%d), want (%d,%d)",
				p.Src, p.ID, src, id, p.Src, p.ID)
		}
	}
}

func TestSingleplayerIdentity(t *testing.T) {
	if !Singleplayer.IsSingleplayer() {
		t.Fatal("Singleplayer.IsSingleplayer() = false")
	}
	if (PlayerID{Src: 1, ID: 1}).IsSingleplayer() {
		t.Fatal("(1,1) incorrectly reported as singleplayer")
	}
}
