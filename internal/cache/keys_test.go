package cache

import "testing"

func TestKeys(t *testing.T) {
	if got := quoteKey(12, 4, 3); got != "price:quote:12:4:3" {
		t.Errorf("quoteKey: got %s", got)
	}
	if got := generationKey(12); got != "price:gen:12" {
		t.Errorf("generationKey: got %s", got)
	}
	if got := cartKey(7); got != "cart:7" {
		t.Errorf("cartKey: got %s", got)
	}
}
