package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/lucidfort/snapgram/config"
	"github.com/lucidfort/snapgram/pkg/testsupport"
)

func TestRunDemo(t *testing.T) {
	cfg := config.Default()
	cfg.Store.DSN = testsupport.MemoryDSN()
	cfg.LogLevel = "error"

	var out bytes.Buffer
	if err := runDemo(context.Background(), cfg, &out); err != nil {
		t.Fatalf("runDemo: %v\n%s", err, out.String())
	}

	for _, want := range []string{
		"3 posts by @ada",
		`1 comment(s) on "Sunset over the harbour", form text now ""`,
		"@ada has 1 notification(s)",
		"page of 3 post(s)",
		"page of 0 post(s)",
		"confirmation pending",
		"<- navigated back",
		"confirmation closed, 2 recent post(s) left",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
