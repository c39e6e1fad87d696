package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"example.com/gotorrent/lib/bencode"
	"example.com/gotorrent/lib/config"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/files"
	"example.com/gotorrent/lib/logger"
	"example.com/gotorrent/lib/platform/peer"
	"example.com/gotorrent/lib/runner"
)

var errUsage = errors.New("usage")

const usage = `usage: gotorrent <command> [arguments]

commands:
  decode <value>                                    render an encoded value
  info <file>                                       show a metadata file
  peers <file>                                      list peers from the trackers
  handshake <file> <ip:port>                        print the remote peer id
  download_piece -o <dest> <file> <index> [ip:port] fetch and verify one piece
  download_piece -into <out> <file> <index> [ip:port]
                                                    place the piece in the output file,
                                                    skipping it when already there
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.FromEnv(config.Default(), os.LookupEnv)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if err := logger.SetRule(cfg.LogRule); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmds := map[string]func(context.Context, config.Config, []string, io.Writer) error{
		"decode":         cmdDecode,
		"info":           cmdInfo,
		"peers":          cmdPeers,
		"handshake":      cmdHandshake,
		"download_piece": cmdDownloadPiece,
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}
	if err := cmd(ctx, cfg, args[1:], stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, usage)
			return 2
		}
		fmt.Fprintf(stderr, "%s: %s\n", args[0], err)
		return 1
	}
	return 0
}

func cmdDecode(_ context.Context, _ config.Config, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	v, err := bencode.DecodeString(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, bencode.Render(v))
	return nil
}

func cmdInfo(_ context.Context, _ config.Config, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	m, err := domain.LoadMetadata(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Tracker URL: %s\n", m.Announce)
	fmt.Fprintf(stdout, "Length: %d\n", m.Info.Length)
	fmt.Fprintf(stdout, "Info Hash: %s\n", m.InfoHash)
	fmt.Fprintf(stdout, "Piece Length: %d\n", m.Info.PieceLength)
	fmt.Fprintln(stdout, "Piece Hashes:")
	for _, h := range m.PieceHashes() {
		fmt.Fprintf(stdout, "%x\n", h)
	}
	return nil
}

func cmdPeers(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	m, err := domain.LoadMetadata(args[0])
	if err != nil {
		return err
	}
	r, err := runner.New(cfg, m)
	if err != nil {
		return err
	}
	defer r.Close()

	hosts, err := r.Hosts.GetHosts(ctx)
	if err != nil {
		return err
	}
	for _, h := range hosts {
		fmt.Fprintln(stdout, h)
	}
	return nil
}

func cmdHandshake(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	if len(args) != 2 {
		return errUsage
	}
	m, err := domain.LoadMetadata(args[0])
	if err != nil {
		return err
	}
	h, err := domain.ParseHost(args[1])
	if err != nil {
		return err
	}
	sess := peer.New(h, m.InfoHash, cfg, nil)
	defer sess.Close()
	if err := sess.Connect(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Peer ID: %x\n", sess.GetPeerID())
	return nil
}

func cmdDownloadPiece(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("download_piece", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dest := fs.String("o", "", "destination file for the piece alone")
	into := fs.String("into", "", "output file the piece is written into at its offset")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	args = fs.Args()
	if (*dest == "" && *into == "") || len(args) < 2 || len(args) > 3 {
		return errUsage
	}

	m, err := domain.LoadMetadata(args[0])
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid piece index %q", args[1])
	}
	if _, err := m.PieceSize(index); err != nil {
		return err
	}

	var out files.File
	if *into != "" {
		out = files.File{Path: *into, Metadata: m}
		if err := out.Create(); err != nil {
			return err
		}
		have, err := out.Check()
		if err != nil {
			return err
		}
		if have.ContainPiece(uint32(index)) && *dest == "" {
			fmt.Fprintf(stdout, "Piece %d already in %s.\n", index, *into)
			return nil
		}
	}

	var static []domain.Host
	if len(args) == 3 {
		h, err := domain.ParseHost(args[2])
		if err != nil {
			return err
		}
		static = append(static, h)
	}

	r, err := runner.New(cfg, m, static...)
	if err != nil {
		return err
	}
	defer r.Close()

	piece, err := r.Download.FetchPiece(ctx, index)
	if err != nil {
		return err
	}
	if *dest != "" {
		if err := files.WritePiece(*dest, piece.Data); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Piece %d downloaded to %s.\n", index, *dest)
	}
	if *into != "" {
		if err := out.WriteAt(index, piece.Data); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Piece %d downloaded to %s.\n", index, *into)
	}
	return nil
}
