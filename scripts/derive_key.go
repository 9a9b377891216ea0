// derive_key.go prints the identity and change keys derived from a mnemonic
// file, for checking a keystore against a paper backup.
// Usage: go run scripts/derive_key.go <mnemonicfile> [count]
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Klingon-tech/klingnet-assets/internal/wallet"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_key <mnemonicfile> [count]")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	count := uint64(1)
	if len(os.Args) > 2 {
		count, err = strconv.ParseUint(os.Args[2], 10, 32)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	mnemonic := strings.Join(strings.Fields(string(data)), " ")
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for i := uint32(0); i < uint32(count); i++ {
		for _, chain := range []uint32{wallet.ChainIdentity, wallet.ChainChange} {
			key, err := master.DeriveKey(0, chain, i)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Printf("chain=%d index=%d pubkey=%s\n", chain, i, key.PublicKey())
		}
	}
}
