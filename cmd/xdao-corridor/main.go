package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/corridor/anchor"
	"xdao.co/corridor/canonical"
	"xdao.co/corridor/chain"
	"xdao.co/corridor/cidutil"
	"xdao.co/corridor/fork"
	"xdao.co/corridor/model"
	"xdao.co/corridor/storage"
	"xdao.co/corridor/storage/bundle"
	"xdao.co/corridor/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "canon":
		return cmdCanon(args[1:], out, errOut)
	case "digest":
		return cmdDigest(args[1:], out, errOut)
	case "chain":
		return cmdChain(args[1:], out, errOut)
	case "fork":
		return cmdFork(args[1:], out, errOut)
	case "bundle":
		return cmdBundle(args[1:], out, errOut)
	case "anchor":
		return cmdAnchor(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-corridor: corridor receipt chain CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-corridor canon <file.json>")
	fmt.Fprintln(w, "  xdao-corridor digest [--alg sha256|sha3-256] [--cid] <file.json>")
	fmt.Fprintln(w, "  xdao-corridor chain init --store <dir> --corridor <id> [--genesis <64hex>]")
	fmt.Fprintln(w, "  xdao-corridor chain append --store <dir> --snapshot <CID> --receipt <file.json> [--seal]")
	fmt.Fprintln(w, "  xdao-corridor chain show --store <dir> --snapshot <CID>")
	fmt.Fprintln(w, "  xdao-corridor chain checkpoint --store <dir> --snapshot <CID>")
	fmt.Fprintln(w, "  xdao-corridor chain prove --store <dir> --snapshot <CID> --index <n>")
	fmt.Fprintln(w, "  xdao-corridor fork resolve --a <branch.json> --b <branch.json>")
	fmt.Fprintln(w, "  xdao-corridor bundle export --store <dir> --out <file> <CID> [<CID> ...]")
	fmt.Fprintln(w, "  xdao-corridor bundle import --store <dir> <file>")
	fmt.Fprintln(w, "  xdao-corridor anchor commit --target <addr> --digest <64hex> --height <n> [--chain-id <id>]")
	fmt.Fprintln(w, "  xdao-corridor anchor status --target <addr> --tx <id>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - canon writes canonical JSON bytes to stdout (no trailing newline)")
	fmt.Fprintln(w, "  - chain commands persist snapshots in a localfs CAS under --store and print the new snapshot CID")
	fmt.Fprintln(w, "  - append expects a receipt record; --seal computes the next state root before appending")
	fmt.Fprintln(w, "  - bundle export/import ship CAS blocks as a deterministic TAR between authorities")
	fmt.Fprintln(w, "  - anchor talks to an anchor daemon such as xdao-anchorgrpcd")
}

func cmdCanon(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("canon", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-corridor canon <file.json>")
		return 2
	}
	v, code := readJSONValue(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	b, err := canonical.Canonicalize(v)
	if err != nil {
		fmt.Fprintf(errOut, "canonicalize: %v\n", err)
		return 1
	}
	_, _ = out.Write(b.Encoded())
	return 0
}

func cmdDigest(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var alg string
	var printCID bool
	fs.StringVar(&alg, "alg", string(canonical.SHA256), "Digest algorithm: sha256 or sha3-256")
	fs.BoolVar(&printCID, "cid", false, "Also print the CAS key (CIDv1 raw+sha2-256) for the canonical bytes")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-corridor digest [--alg sha256|sha3-256] [--cid] <file.json>")
		return 2
	}
	v, code := readJSONValue(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	b, err := canonical.Canonicalize(v)
	if err != nil {
		fmt.Fprintf(errOut, "canonicalize: %v\n", err)
		return 1
	}
	d, err := canonical.SumWithAlg(b, canonical.Algorithm(alg))
	if err != nil {
		fmt.Fprintf(errOut, "digest: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, d.String())
	if printCID {
		if d.Algorithm() != canonical.SHA256 {
			fmt.Fprintln(errOut, "--cid requires --alg sha256 (CAS keys are CIDv1 raw+sha2-256)")
			return 2
		}
		id, err := cidutil.CIDFromSHA256(d.SumBytes())
		if err != nil {
			fmt.Fprintf(errOut, "cid: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, id)
	}
	return 0
}

func readJSONValue(path string, errOut io.Writer) (any, int) {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
		return nil, 1
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		fmt.Fprintf(errOut, "parse %s: %v\n", filepath.Base(path), err)
		return nil, 1
	}
	return v, 0
}

func cmdChain(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-corridor chain <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: init, append, show, checkpoint, prove")
		return 2
	}
	switch args[0] {
	case "init":
		return cmdChainInit(args[1:], out, errOut)
	case "append":
		return cmdChainAppend(args[1:], out, errOut)
	case "show":
		return cmdChainShow(args[1:], out, errOut)
	case "checkpoint":
		return cmdChainCheckpoint(args[1:], out, errOut)
	case "prove":
		return cmdChainProve(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown chain subcommand: %s\n", args[0])
		return 2
	}
}

func openStore(dir string, errOut io.Writer) (storage.ChainStore, int) {
	if dir == "" {
		fmt.Fprintln(errOut, "missing --store")
		return storage.ChainStore{}, 2
	}
	cas, err := localfs.New(dir)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return storage.ChainStore{}, 1
	}
	return storage.ChainStore{CAS: cas}, 0
}

func loadChain(store storage.ChainStore, snapshotCID string, errOut io.Writer) (*chain.Chain, int) {
	if snapshotCID == "" {
		fmt.Fprintln(errOut, "missing --snapshot")
		return nil, 2
	}
	id, err := cid.Decode(snapshotCID)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --snapshot: %v\n", err)
		return nil, 2
	}
	c, err := store.Load(id)
	if err != nil {
		fmt.Fprintf(errOut, "load snapshot: %v\n", err)
		return nil, 1
	}
	return c, 0
}

func saveChain(store storage.ChainStore, c *chain.Chain, out io.Writer, errOut io.Writer) int {
	id, err := store.Save(c)
	if err != nil {
		fmt.Fprintf(errOut, "save snapshot: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id)
	return 0
}

func cmdChainInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("chain init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var storeDir string
	var corridor string
	var genesis string

	fs.StringVar(&storeDir, "store", "", "Localfs CAS directory")
	fs.StringVar(&corridor, "corridor", "", "Corridor identifier")
	fs.StringVar(&genesis, "genesis", chain.ZeroGenesisRoot, "Genesis state root (64 hex chars)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if corridor == "" {
		fmt.Fprintln(errOut, "missing --corridor")
		return 2
	}
	store, code := openStore(storeDir, errOut)
	if code != 0 {
		return code
	}
	c, err := chain.New(chain.CorridorID(corridor), genesis)
	if err != nil {
		fmt.Fprintf(errOut, "init chain: %v\n", err)
		return 1
	}
	return saveChain(store, c, out, errOut)
}

func cmdChainAppend(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("chain append", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var storeDir string
	var snapshotCID string
	var receiptPath string
	var seal bool

	fs.StringVar(&storeDir, "store", "", "Localfs CAS directory")
	fs.StringVar(&snapshotCID, "snapshot", "", "Snapshot CID to load")
	fs.StringVar(&receiptPath, "receipt", "", "Receipt record file (JSON)")
	fs.BoolVar(&seal, "seal", false, "Seal the receipt before appending (fills prevRoot and nextRoot)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if receiptPath == "" {
		fmt.Fprintln(errOut, "missing --receipt")
		return 2
	}
	store, code := openStore(storeDir, errOut)
	if code != 0 {
		return code
	}
	c, code := loadChain(store, snapshotCID, errOut)
	if code != 0 {
		return code
	}

	raw, err := os.ReadFile(receiptPath)
	if err != nil {
		fmt.Fprintf(errOut, "read receipt: %v\n", err)
		return 1
	}
	var rec model.ReceiptRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		fmt.Fprintf(errOut, "parse receipt: %v\n", err)
		return 1
	}
	r, err := model.ToReceipt(rec)
	if err != nil {
		fmt.Fprintf(errOut, "invalid receipt: %v\n", err)
		return 1
	}
	if seal {
		r.Sequence = c.Height()
		r.PrevRoot = c.FinalStateRoot()
		if err := r.Seal(); err != nil {
			fmt.Fprintf(errOut, "seal receipt: %v\n", err)
			return 1
		}
	} else if !r.Sealed() {
		fmt.Fprintln(errOut, "receipt has no nextRoot; seal it first or pass --seal")
		return 2
	}
	if err := c.Append(r); err != nil {
		fmt.Fprintf(errOut, "append: %v\n", err)
		return 1
	}
	fmt.Fprintf(errOut, "height: %d\n", c.Height())
	fmt.Fprintf(errOut, "mmr-root: %s\n", c.MMRRoot())
	fmt.Fprintf(errOut, "final-root: %s\n", c.FinalStateRoot())
	return saveChain(store, c, out, errOut)
}

func cmdChainShow(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("chain show", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var storeDir string
	var snapshotCID string

	fs.StringVar(&storeDir, "store", "", "Localfs CAS directory")
	fs.StringVar(&snapshotCID, "snapshot", "", "Snapshot CID to load")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	store, code := openStore(storeDir, errOut)
	if code != 0 {
		return code
	}
	c, code := loadChain(store, snapshotCID, errOut)
	if code != 0 {
		return code
	}

	fmt.Fprintf(out, "corridor: %s\n", c.Corridor())
	fmt.Fprintf(out, "height: %d\n", c.Height())
	fmt.Fprintf(out, "genesis-root: %s\n", c.GenesisRoot())
	fmt.Fprintf(out, "final-root: %s\n", c.FinalStateRoot())
	fmt.Fprintf(out, "mmr-root: %s\n", c.MMRRoot())
	for _, cp := range c.Checkpoints() {
		fmt.Fprintf(out, "checkpoint: height=%d digest=%s\n", cp.Height, cp.Digest)
	}
	return 0
}

func cmdChainCheckpoint(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("chain checkpoint", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var storeDir string
	var snapshotCID string

	fs.StringVar(&storeDir, "store", "", "Localfs CAS directory")
	fs.StringVar(&snapshotCID, "snapshot", "", "Snapshot CID to load")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	store, code := openStore(storeDir, errOut)
	if code != 0 {
		return code
	}
	c, code := loadChain(store, snapshotCID, errOut)
	if code != 0 {
		return code
	}

	cp, err := c.CreateCheckpoint()
	if err != nil {
		fmt.Fprintf(errOut, "checkpoint: %v\n", err)
		return 1
	}
	fmt.Fprintf(errOut, "height: %d\n", cp.Height)
	fmt.Fprintf(errOut, "digest: %s\n", cp.Digest)
	return saveChain(store, c, out, errOut)
}

func cmdChainProve(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("chain prove", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var storeDir string
	var snapshotCID string
	var index uint64

	fs.StringVar(&storeDir, "store", "", "Localfs CAS directory")
	fs.StringVar(&snapshotCID, "snapshot", "", "Snapshot CID to load")
	fs.Uint64Var(&index, "index", 0, "Receipt sequence number to prove")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	store, code := openStore(storeDir, errOut)
	if code != 0 {
		return code
	}
	c, code := loadChain(store, snapshotCID, errOut)
	if code != 0 {
		return code
	}

	p, err := c.BuildInclusionProof(index)
	if err != nil {
		fmt.Fprintf(errOut, "prove: %v\n", err)
		return 1
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		fmt.Fprintf(errOut, "encode proof: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, string(b))
	return 0
}

func cmdFork(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 || args[0] != "resolve" {
		fmt.Fprintln(errOut, "usage: xdao-corridor fork resolve --a <branch.json> --b <branch.json>")
		return 2
	}
	fs := flag.NewFlagSet("fork resolve", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var aPath string
	var bPath string

	fs.StringVar(&aPath, "a", "", "First branch record file")
	fs.StringVar(&bPath, "b", "", "Second branch record file")

	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if aPath == "" || bPath == "" {
		fmt.Fprintln(errOut, "usage: xdao-corridor fork resolve --a <branch.json> --b <branch.json>")
		return 2
	}

	a, code := readBranch(aPath, errOut)
	if code != 0 {
		return code
	}
	b, code := readBranch(bPath, errOut)
	if code != 0 {
		return code
	}

	res, err := fork.Resolve(a, b)
	if err != nil {
		fmt.Fprintf(errOut, "resolve: %v\n", err)
		return 1
	}
	enc, err := json.MarshalIndent(model.FromResolution(res), "", "  ")
	if err != nil {
		fmt.Fprintf(errOut, "encode resolution: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, string(enc))
	return 0
}

func readBranch(path string, errOut io.Writer) (fork.Branch, int) {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
		return fork.Branch{}, 1
	}
	var rec model.ForkBranchRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		fmt.Fprintf(errOut, "parse %s: %v\n", filepath.Base(path), err)
		return fork.Branch{}, 1
	}
	b, err := model.ToBranch(rec)
	if err != nil {
		fmt.Fprintf(errOut, "invalid branch %s: %v\n", filepath.Base(path), err)
		return fork.Branch{}, 1
	}
	return b, 0
}

func cmdBundle(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-corridor bundle <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: export, import")
		return 2
	}
	switch args[0] {
	case "export":
		return cmdBundleExport(args[1:], out, errOut)
	case "import":
		return cmdBundleImport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func cmdBundleExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var storeDir string
	var outPath string

	fs.StringVar(&storeDir, "store", "", "Localfs CAS directory")
	fs.StringVar(&outPath, "out", "", "Output bundle file")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if outPath == "" {
		fmt.Fprintln(errOut, "missing --out")
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: xdao-corridor bundle export --store <dir> --out <file> <CID> [<CID> ...]")
		return 2
	}
	store, code := openStore(storeDir, errOut)
	if code != 0 {
		return code
	}

	ids := make([]cid.Cid, 0, fs.NArg())
	for _, s := range fs.Args() {
		id, err := cid.Decode(s)
		if err != nil {
			fmt.Fprintf(errOut, "invalid CID %q: %v\n", s, err)
			return 2
		}
		ids = append(ids, id)
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(errOut, "create %s: %v\n", outPath, err)
		return 1
	}
	defer f.Close()

	if err := bundle.Export(f, store.CAS, ids, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(out, "exported %d block(s) to %s\n", len(ids), outPath)
	return 0
}

func cmdBundleImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle import", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var storeDir string
	fs.StringVar(&storeDir, "store", "", "Localfs CAS directory")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-corridor bundle import --store <dir> <file>")
		return 2
	}
	store, code := openStore(storeDir, errOut)
	if code != 0 {
		return code
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "open %s: %v\n", fs.Arg(0), err)
		return 1
	}
	defer f.Close()

	if err := bundle.Import(f, store.CAS); err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, "OK")
	return 0
}

func cmdAnchor(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-corridor anchor <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: commit, status")
		return 2
	}
	switch args[0] {
	case "commit":
		return cmdAnchorCommit(args[1:], out, errOut)
	case "status":
		return cmdAnchorStatus(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown anchor subcommand: %s\n", args[0])
		return 2
	}
}

func dialAnchor(target string, errOut io.Writer) (*anchor.Client, int) {
	if target == "" {
		fmt.Fprintln(errOut, "missing --target")
		return nil, 2
	}
	client, err := anchor.Dial(target, anchor.DialOptions{Timeout: 10 * time.Second})
	if err != nil {
		fmt.Fprintf(errOut, "dial %s: %v\n", target, err)
		return nil, 1
	}
	client.Timeout = 10 * time.Second
	return client, 0
}

func cmdAnchorCommit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("anchor commit", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var target string
	var digest string
	var height uint64
	var chainID string

	fs.StringVar(&target, "target", "", "Anchor daemon address")
	fs.StringVar(&digest, "digest", "", "Checkpoint digest (64 hex chars)")
	fs.Uint64Var(&height, "height", 0, "Checkpoint height")
	fs.StringVar(&chainID, "chain-id", "", "Optional external chain id")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if digest == "" {
		fmt.Fprintln(errOut, "missing --digest")
		return 2
	}
	client, code := dialAnchor(target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()

	r, err := client.Anchor(context.Background(), anchor.Commitment{
		CheckpointDigest: digest,
		ChainID:          chainID,
		Height:           height,
	})
	if err != nil {
		fmt.Fprintf(errOut, "anchor: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "chain-id: %s\n", r.ChainID)
	fmt.Fprintf(out, "tx: %s\n", r.TxID)
	fmt.Fprintf(out, "block: %d\n", r.BlockNumber)
	fmt.Fprintf(out, "status: %s\n", r.Status)
	return 0
}

func cmdAnchorStatus(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("anchor status", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var target string
	var txID string

	fs.StringVar(&target, "target", "", "Anchor daemon address")
	fs.StringVar(&txID, "tx", "", "Transaction id returned by anchor commit")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if txID == "" {
		fmt.Fprintln(errOut, "missing --tx")
		return 2
	}
	client, code := dialAnchor(target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()

	st, err := client.CheckStatus(context.Background(), txID)
	if err != nil {
		fmt.Fprintf(errOut, "status: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, st)
	return 0
}
