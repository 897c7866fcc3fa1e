package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"kafji.net/hidstate/recorder"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <journal> <output>\n", os.Args[0])
		os.Exit(2)
	}

	if err := obfuscate(os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func obfuscate(inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	rd, err := recorder.NewReader(in)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}

	s := recorder.NewKeyScrambler(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	if err := recorder.Rewrite(rd, out, s.Scramble); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
