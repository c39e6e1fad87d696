package main

import (
	"context"
	"fmt"
	"os"

	"example.com/gotorrent/lib/config"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/platform/announce"
	"example.com/gotorrent/lib/platform/realclock"
)

// check announces to every tracker of a metadata file separately and
// reports what each one answered.
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: check <file>")
		os.Exit(2)
	}
	m, err := domain.LoadMetadata(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv(config.Default(), os.LookupEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	failed := 0
	for _, u := range m.Trackers() {
		t := announce.NewTracker(u, m.InfoHash, m.Info.Length, cfg, realclock.RealClock{})
		hosts, err := t.GetPeers(context.Background())
		if err != nil {
			failed++
			fmt.Printf("%s: error: %s\n", u, err)
			continue
		}
		fmt.Printf("%s: %d peers\n", u, len(hosts))
		for _, h := range hosts {
			fmt.Printf("  %s\n", h)
		}
	}
	if failed == len(m.Trackers()) {
		os.Exit(1)
	}
}
