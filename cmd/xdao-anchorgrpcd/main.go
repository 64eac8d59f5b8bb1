package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"xdao.co/corridor/anchor"
)

func main() {
	fs := flag.NewFlagSet("xdao-anchorgrpcd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7778", "listen address")
	chainID := fs.String("chain-id", "memory", "chain id reported in anchor receipts")
	finalizeAfter := fs.Int("finalize-after", 0, "status polls a commitment stays pending before finalizing")

	_ = fs.Parse(os.Args[1:])

	target := anchor.NewMemory(*chainID)
	target.FinalizeAfter = *finalizeAfter

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	anchor.RegisterAnchorServer(s, &anchor.Server{Target: target})

	fmt.Fprintf(os.Stderr, "xdao-anchorgrpcd listening on %s (chain-id=%s)\n", lis.Addr().String(), *chainID)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
