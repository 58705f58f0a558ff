package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/agenthands/rgbkit/pkg/cidutil"
	"github.com/agenthands/rgbkit/pkg/container"
	"github.com/agenthands/rgbkit/pkg/dirlist"
	"github.com/agenthands/rgbkit/pkg/magic"
	"github.com/agenthands/rgbkit/pkg/rgb"
	"github.com/agenthands/rgbkit/pkg/wallet"
	"github.com/spf13/pflag"
)

func runInspect(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usagef("inspect takes one file")
	}
	path := args[0]

	tag, payload, err := container.ReadFileRaw(path)
	if err != nil {
		return err
	}
	kind, err := magic.FromUint32(tag)
	if err != nil {
		return &container.UnknownMagicError{Found: tag}
	}
	obj, err := rgb.New(kind)
	if err != nil {
		return err
	}
	if err := container.ReadFile(path, obj); err != nil {
		return err
	}

	b := kind.Bytes()
	id, err := cidutil.NewBuilder().ContainerID(append(b[:], payload...))
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "kind:     %s\n", kind)
	fmt.Fprintf(e.stdout, "tag:      0x%08x\n", tag)
	fmt.Fprintf(e.stdout, "payload:  %d bytes\n", len(payload))
	fmt.Fprintf(e.stdout, "id:       %s\n", cidutil.String(id))
	printDetails(e.stdout, obj)
	return nil
}

func printDetails(w io.Writer, obj container.Object) {
	switch o := obj.(type) {
	case *rgb.Consignment:
		fmt.Fprintf(w, "version:  %d\n", o.Version)
		fmt.Fprintf(w, "items:    %d transitions, %d anchors\n", len(o.Transitions), len(o.Anchors))
	case *rgb.Stash:
		fmt.Fprintf(w, "version:  %d\n", o.Version)
		fmt.Fprintf(w, "items:    %d schemata, %d genesis, %d transitions, %d anchors\n",
			len(o.Schemata), len(o.Genesis), len(o.Transitions), len(o.Anchors))
	}
}

func runList(ctx context.Context, e *env, args []string) error {
	var ext string
	flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&ext, "ext", "", "only list files with this extension")
	if err := flagSet.Parse(args); err != nil {
		return usagef("list: %v", err)
	}
	if flagSet.NArg() != 1 {
		return usagef("list takes one directory")
	}

	names, err := dirlist.ListFilenames(flagSet.Arg(0), ext)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(e.stdout, name)
	}
	return nil
}

func runEncode(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usagef("encode takes one file")
	}
	obj, err := readContainer(args[0])
	if err != nil {
		return err
	}
	s, err := container.EncodeString(obj)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, s)
	return nil
}

func runDecode(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return usagef("decode takes a string and an output file")
	}
	kind, err := container.PeekString(args[0])
	if err != nil {
		return err
	}
	obj, err := rgb.New(kind)
	if err != nil {
		return err
	}
	if err := container.DecodeString(args[0], obj); err != nil {
		return err
	}
	n, err := container.WriteFileAtomic(obj, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "wrote %s container to %s (%d bytes)\n", kind, args[1], n)
	return nil
}

func runPut(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return usagef("put takes at least one file")
	}
	return withWallet(ctx, e, func(w wallet.Store) error {
		for _, path := range args {
			obj, err := readContainer(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			id, err := w.Put(ctx, obj)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(e.stdout, "%s  %s\n", cidutil.String(id), path)
		}
		return nil
	})
}

func runIDs(ctx context.Context, e *env, args []string) error {
	kinds := magic.All()
	switch len(args) {
	case 0:
	case 1:
		kind, err := magic.ParseName(args[0])
		if err != nil {
			return usagef("%v", err)
		}
		kinds = []magic.Number{kind}
	default:
		return usagef("ids takes at most one kind")
	}

	return withWallet(ctx, e, func(w wallet.Store) error {
		for _, kind := range kinds {
			ids, err := w.List(ctx, kind)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintf(e.stdout, "%-12s %s\n", kind, cidutil.String(id))
			}
		}
		return nil
	})
}

func runReindex(ctx context.Context, e *env, args []string) error {
	if len(args) != 0 {
		return usagef("reindex takes no arguments")
	}
	return withWallet(ctx, e, func(w wallet.Store) error {
		res, err := w.Reindex(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "indexed %d containers, skipped %d files\n", res.Indexed, res.Skipped)
		return nil
	})
}

func runExport(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usagef("export takes one archive path")
	}
	return withWallet(ctx, e, func(w wallet.Store) error {
		n, err := w.Export(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "exported %d containers to %s\n", n, args[0])
		return nil
	})
}

func runImport(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usagef("import takes one archive path")
	}
	return withWallet(ctx, e, func(w wallet.Store) error {
		n, err := w.Import(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "imported %d containers from %s\n", n, args[0])
		return nil
	})
}

func withWallet(ctx context.Context, e *env, fn func(w wallet.Store) error) (err error) {
	w, err := wallet.Open(ctx, e.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(w)
}

func readContainer(path string) (container.Object, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return rgb.Decode(raw)
}
