package scraper

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestIsAdDomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"doubleclick.net", true},
		{"pagead2.googlesyndication.com", true},
		{"STATS.G.DOUBLECLICK.NET", true},
		{"www.clarity.ms", true},
		{"www.tecnocubo.com.br", false},
		{"notdoubleclick.net", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isAdDomain(tt.host); got != tt.want {
			t.Errorf("isAdDomain(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestBlocker(t *testing.T) {
	b := newBlocker([]string{"Media", "Unknown"}, true)
	if b.empty() {
		t.Fatal("blocker with types should not be empty")
	}

	tests := []struct {
		name string
		rt   proto.NetworkResourceType
		url  string
		want bool
	}{
		{"media", proto.NetworkResourceTypeMedia, "https://shop.example/v.mp4", true},
		{"image kept", proto.NetworkResourceTypeImage, "https://shop.example/p.jpg", false},
		{"stylesheet kept", proto.NetworkResourceTypeStylesheet, "https://shop.example/a.css", false},
		{"ad script", proto.NetworkResourceTypeScript, "https://www.googletagmanager.com/gtm.js", true},
		{"shop script", proto.NetworkResourceTypeScript, "https://shop.example/app.js", false},
		{"document never blocked", proto.NetworkResourceTypeDocument, "https://doubleclick.net/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.blocks(tt.rt, tt.url); got != tt.want {
				t.Errorf("blocks(%s, %q) = %v, want %v", tt.rt, tt.url, got, tt.want)
			}
		})
	}
}

func TestBlockerEmpty(t *testing.T) {
	if !newBlocker(nil, false).empty() {
		t.Error("no types and no ad blocking should be empty")
	}
	if !newBlocker([]string{"Bogus"}, false).empty() {
		t.Error("unknown type names should be ignored")
	}
	if newBlocker(nil, true).empty() {
		t.Error("ad blocking alone should not be empty")
	}
}
