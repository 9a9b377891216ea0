// klingnet-assets is a single-node operator tool for issuing, paying and
// exiting fungible assets held in a local vault.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/Klingon-tech/klingnet-assets/config"
	"github.com/Klingon-tech/klingnet-assets/internal/log"
	"github.com/Klingon-tech/klingnet-assets/internal/vault"
	"github.com/Klingon-tech/klingnet-assets/internal/wallet"
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
	"golang.org/x/term"
)

const version = "0.1.0"

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if err != nil {
		fatal("%v", err)
	}
	if flags.Version {
		fmt.Println("klingnet-assets", version)
		return
	}
	if flags.Help || len(flags.Args) == 0 {
		usage()
		if flags.Help {
			return
		}
		os.Exit(1)
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}

	cmd := flags.Args[0]
	cmdArgs := flags.Args[1:]

	switch cmd {
	case "wallet":
		cmdWallet(cmdArgs, ks)
	case "identity":
		cmdIdentity(cmdArgs, ks)
	case "products":
		withLedger(cfg, func(l *ledger) { cmdProducts(l) })
	case "issue":
		withLedger(cfg, func(l *ledger) { cmdIssue(cmdArgs, cfg, ks, l) })
	case "pay":
		withLedger(cfg, func(l *ledger) { cmdPay(cmdArgs, ks, l) })
	case "exit":
		withLedger(cfg, func(l *ledger) { cmdExit(cmdArgs, ks, l) })
	case "balance":
		withLedger(cfg, func(l *ledger) { cmdBalance(cmdArgs, ks, l) })
	case "states":
		withLedger(cfg, func(l *ledger) { cmdStates(cmdArgs, ks, l) })
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: klingnet-assets [global flags] <command> [flags]

Global flags:
  --datadir <path>        Data directory (default: ~/.klingnet-assets)
  --config <file>         Config file (default: <datadir>/assets.conf)
  --notary <identity>     Identity that notarises new issuances (default: notary)
  --vault-backend <b>     badger (default) or memory
  --lock-backend <b>      memory (default) or redis
  --redis-addr <addr>     Redis address for soft locks
  --log-level <level>     debug, info, warn, error
  --log-json              Log as JSON

Commands:
  wallet create --name <n>        Create a new wallet
  wallet import --name <n> --mnemonic "..."
                                  Import wallet from mnemonic
  wallet list                     List wallets

  identity create --wallet <w> --name <n>
                                  Derive a new identity
  identity list --wallet <w>      List wallet identities

  products                        List known products

  issue --wallet <w> --issuer <id> --to <id|key> --product <code> --amount <n>
        [--ref <hex>] [--decimals <d>]
                                  Issue new value
  pay --wallet <w> --product <code> --to <id|key>=<amount> [--to ...]
      [--from <id>,...] [--issuers <name>,...]
                                  Pay from wallet states
  exit --wallet <w> --issuer <name> --product <code> --amount <n>
       [--ref <hex>] [--from <id>,...]
                                  Redeem value with its issuer

  balance --wallet <w> [--identity <id>]
                                  Show balances per issued token
  states [--wallet <w>]           List unconsumed states and the vault commitment
`)
}

// ── Wallet commands ─────────────────────────────────────────────────────

func cmdWallet(args []string, ks *wallet.Keystore) {
	if len(args) == 0 {
		fatal("Usage: klingnet-assets wallet <create|import|list>")
	}
	switch args[0] {
	case "create":
		cmdWalletCreate(args[1:], ks)
	case "import":
		cmdWalletImport(args[1:], ks)
	case "list":
		cmdWalletList(ks)
	default:
		fatal("unknown wallet command: %s", args[0])
	}
}

func cmdWalletCreate(args []string, ks *wallet.Keystore) {
	fs := flag.NewFlagSet("wallet create", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: klingnet-assets wallet create --name <name>")
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	createWallet(ks, *name, mnemonic)
}

func cmdWalletImport(args []string, ks *wallet.Keystore) {
	fs := flag.NewFlagSet("wallet import", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
	fs.Parse(args)

	if *name == "" || *mnemonic == "" {
		fatal("Usage: klingnet-assets wallet import --name <name> --mnemonic \"...\"")
	}
	if !wallet.ValidateMnemonic(*mnemonic) {
		fatal("invalid mnemonic")
	}
	createWallet(ks, *name, *mnemonic)
}

func createWallet(ks *wallet.Keystore, name, mnemonic string) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}
	defer func() {
		for i := range seed {
			seed[i] = 0
		}
	}()

	if err := ks.Create(name, seed, password, wallet.DefaultParams()); err != nil {
		fatal("create wallet: %v", err)
	}
	fmt.Printf("Wallet %q created.\n", name)
	fmt.Println("Create an identity with: klingnet-assets identity create --wallet", name, "--name <name>")
}

func cmdWalletList(ks *wallet.Keystore) {
	names, err := ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("No wallets found.")
		return
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

// ── Identity commands ───────────────────────────────────────────────────

func cmdIdentity(args []string, ks *wallet.Keystore) {
	if len(args) == 0 {
		fatal("Usage: klingnet-assets identity <create|list>")
	}
	switch args[0] {
	case "create":
		cmdIdentityCreate(args[1:], ks)
	case "list":
		cmdIdentityList(args[1:], ks)
	default:
		fatal("unknown identity command: %s", args[0])
	}
}

func cmdIdentityCreate(args []string, ks *wallet.Keystore) {
	fs := flag.NewFlagSet("identity create", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	name := fs.String("name", "", "Identity name")
	fs.Parse(args)

	if *walletName == "" || *name == "" {
		fatal("Usage: klingnet-assets identity create --wallet <w> --name <name>")
	}

	w := openWallet(ks, *walletName)
	id, err := w.NewIdentity(*name)
	if err != nil {
		fatal("create identity: %v", err)
	}
	fmt.Printf("Identity: %s\n", id.Name)
	fmt.Printf("Index:    %d\n", id.Index)
	fmt.Printf("Key:      %s\n", id.Key)
}

func cmdIdentityList(args []string, ks *wallet.Keystore) {
	fs := flag.NewFlagSet("identity list", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *walletName == "" {
		fatal("Usage: klingnet-assets identity list --wallet <w>")
	}
	ids, err := ks.Identities(*walletName)
	if err != nil {
		fatal("list identities: %v", err)
	}
	if len(ids) == 0 {
		fmt.Println("No identities.")
		return
	}
	fmt.Printf("%-5s  %-20s  %s\n", "INDEX", "NAME", "KEY")
	for _, id := range ids {
		fmt.Printf("%-5d  %-20s  %s\n", id.Index, id.Name, id.Key)
	}
}

// ── Ledger commands ─────────────────────────────────────────────────────

func cmdProducts(l *ledger) {
	infos, err := l.registry.List()
	if err != nil {
		fatal("list products: %v", err)
	}
	if len(infos) == 0 {
		fmt.Println("No products.")
		return
	}
	fmt.Printf("%-10s  %-8s  %s\n", "CODE", "DECIMALS", "ISSUERS")
	for _, info := range infos {
		issuers := make([]string, len(info.Issuers))
		for i, p := range info.Issuers {
			issuers[i] = p.String()
		}
		fmt.Printf("%-10s  %-8d  %s\n", info.Product.Code, info.Product.Decimals, strings.Join(issuers, ", "))
	}
}

func cmdIssue(args []string, cfg *config.Config, ks *wallet.Keystore, l *ledger) {
	fs := flag.NewFlagSet("issue", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	issuerName := fs.String("issuer", "", "Issuing identity")
	to := fs.String("to", "", "Owner identity or public key")
	code := fs.String("product", "", "Product code")
	decimals := fs.Int("decimals", -1, "Product decimals (required for a new product)")
	refHex := fs.String("ref", "", "Issuer deposit reference (hex)")
	amountStr := fs.String("amount", "", "Amount to issue")
	fs.Parse(args)

	if *walletName == "" || *issuerName == "" || *to == "" || *code == "" || *amountStr == "" {
		fatal("Usage: klingnet-assets issue --wallet <w> --issuer <id> --to <id|key> --product <code> --amount <n>")
	}

	product := issueProduct(l, *code, *decimals)
	amount, err := types.ParseAmount(*amountStr, product)
	if err != nil {
		fatal("invalid amount: %v", err)
	}

	w := openWallet(ks, *walletName)
	issuer := mustIdentity(w, *issuerName)
	notary, err := w.Identity(cfg.Notary)
	if err != nil {
		fatal("notary %q: %v (create it with: identity create --wallet %s --name %s)", cfg.Notary, err, *walletName, cfg.Notary)
	}
	owner := resolveKey(w, *to)
	token := product.IssuedBy(issuer.Party().Ref(parseRef(*refHex)...))

	b := tx.NewBuilder(nil)
	if _, err := wallet.GenerateIssue(b, token, amount.Quantity, owner, notary.Party()); err != nil {
		fatal("build issuance: %v", err)
	}
	ltx, err := l.finalize(context.Background(), w, b)
	if err != nil {
		fatal("issue: %v", err)
	}
	fmt.Printf("Issued %s to %s\n", types.FormatAmount(amount), owner.Short())
	fmt.Printf("Transaction: %s\n", ltx.ID)
}

// issueProduct returns the registered product, registering it first when
// decimals are given.
func issueProduct(l *ledger, code string, decimals int) types.Product {
	if decimals < 0 {
		p, err := l.registry.Product(code)
		if err != nil {
			fatal("%v (pass --decimals to register it)", err)
		}
		return p
	}
	if decimals > 18 {
		fatal("decimals must be between 0 and 18")
	}
	p := types.Product{Code: code, Decimals: uint8(decimals)}
	if err := l.registry.Register(p); err != nil {
		fatal("register product: %v", err)
	}
	return p
}

// paymentFlags collects repeated --to recipient=amount flags.
type paymentFlags []string

func (p *paymentFlags) String() string { return strings.Join(*p, ",") }

func (p *paymentFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected recipient=amount, got %q", v)
	}
	*p = append(*p, v)
	return nil
}

func cmdPay(args []string, ks *wallet.Keystore, l *ledger) {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	code := fs.String("product", "", "Product code")
	from := fs.String("from", "", "Comma-separated identities to spend from (default: whole wallet)")
	issuers := fs.String("issuers", "", "Comma-separated issuers to accept (default: any)")
	var to paymentFlags
	fs.Var(&to, "to", "Payment as <identity|key>=<amount> (repeatable)")
	fs.Parse(args)

	if *walletName == "" || *code == "" || len(to) == 0 {
		fatal("Usage: klingnet-assets pay --wallet <w> --product <code> --to <id|key>=<amount>")
	}

	product, err := l.registry.Product(*code)
	if err != nil {
		fatal("%v", err)
	}
	w := openWallet(ks, *walletName)

	var payments []wallet.Payment
	total := types.ZeroAmount(product)
	for _, p := range to {
		recipient, amountStr, _ := strings.Cut(p, "=")
		amount, err := types.ParseAmount(amountStr, product)
		if err != nil {
			fatal("invalid amount %q: %v", amountStr, err)
		}
		if total, err = total.CheckedAdd(amount); err != nil {
			fatal("payments: %v", err)
		}
		payments = append(payments, wallet.Payment{Recipient: resolveKey(w, recipient), Amount: amount})
	}

	allowed := resolveIssuers(l, w, *code, *issuers)
	ctx := context.Background()
	b := tx.NewBuilder(nil)
	pool, err := l.vault.UnspentStatesForSpending(ctx, vault.Query{
		Product:        product,
		MinQuantity:    total.Quantity,
		AllowedIssuers: allowed,
		Owners:         spendKeys(w, *from),
		LockID:         b.LockID(),
	})
	if err != nil {
		fatal("gather states: %v", err)
	}

	change, err := w.NewChangeKey()
	if err != nil {
		l.release(ctx, b)
		fatal("derive change key: %v", err)
	}
	if _, err := wallet.GenerateSpend(b, payments, pool, change, allowed); err != nil {
		l.release(ctx, b)
		fatal("build payment: %v", err)
	}
	ltx, err := l.finalize(ctx, w, b)
	if err != nil {
		fatal("pay: %v", err)
	}
	fmt.Printf("Paid %s in %d output(s) from %d input(s)\n", types.FormatAmount(total), len(ltx.Outputs), len(ltx.Inputs))
	fmt.Printf("Transaction: %s\n", ltx.ID)
}

func cmdExit(args []string, ks *wallet.Keystore, l *ledger) {
	fs := flag.NewFlagSet("exit", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	issuerName := fs.String("issuer", "", "Issuer to redeem with")
	code := fs.String("product", "", "Product code")
	refHex := fs.String("ref", "", "Issuer deposit reference (hex)")
	amountStr := fs.String("amount", "", "Amount to exit")
	from := fs.String("from", "", "Comma-separated identities to spend from (default: whole wallet)")
	fs.Parse(args)

	if *walletName == "" || *issuerName == "" || *code == "" || *amountStr == "" {
		fatal("Usage: klingnet-assets exit --wallet <w> --issuer <name> --product <code> --amount <n>")
	}

	product, err := l.registry.Product(*code)
	if err != nil {
		fatal("%v", err)
	}
	w := openWallet(ks, *walletName)
	issuers := resolveIssuers(l, w, *code, *issuerName)
	ref := types.NewOpaqueBytes(parseRef(*refHex))
	token := product.IssuedBy(types.PartyAndReference{Party: issuers[0], Reference: ref})
	amount, err := types.ParseAmount(*amountStr, token)
	if err != nil {
		fatal("invalid amount: %v", err)
	}

	ctx := context.Background()
	b := tx.NewBuilder(nil)
	pool, err := l.vault.UnspentStatesForSpending(ctx, vault.Query{
		Product:        product,
		MinQuantity:    amount.Quantity,
		AllowedIssuers: issuers[:1],
		IssuerRefs:     []types.OpaqueBytes{ref},
		Owners:         spendKeys(w, *from),
		LockID:         b.LockID(),
	})
	if err != nil {
		fatal("gather states: %v", err)
	}

	change, err := w.NewChangeKey()
	if err != nil {
		l.release(ctx, b)
		fatal("derive change key: %v", err)
	}
	if _, err := wallet.GenerateExit(b, amount, pool, change); err != nil {
		l.release(ctx, b)
		fatal("build exit: %v", err)
	}
	ltx, err := l.finalize(ctx, w, b)
	if err != nil {
		fatal("exit: %v", err)
	}
	fmt.Printf("Exited %s\n", types.FormatAmount(amount))
	fmt.Printf("Transaction: %s\n", ltx.ID)
}

func cmdBalance(args []string, ks *wallet.Keystore, l *ledger) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	identity := fs.String("identity", "", "Only this identity")
	fs.Parse(args)

	if *walletName == "" {
		fatal("Usage: klingnet-assets balance --wallet <w> [--identity <id>]")
	}

	var owners []types.PublicKey
	if *identity != "" {
		id, err := ks.Identity(*walletName, *identity)
		if err != nil {
			fatal("%v", err)
		}
		owners = []types.PublicKey{id.Key}
	} else {
		w := openWallet(ks, *walletName)
		keys, err := w.Keys()
		if err != nil {
			fatal("wallet keys: %v", err)
		}
		owners = keys
	}

	balances, err := l.vault.Balance(owners...)
	if err != nil {
		fatal("balance: %v", err)
	}
	if len(balances) == 0 {
		fmt.Println("No holdings.")
		return
	}

	tokens := make([]types.Issued, 0, len(balances))
	for token := range balances {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].String() < tokens[j].String() })
	for _, token := range tokens {
		amount := types.Amount[types.Issued]{Quantity: balances[token], Token: token}
		fmt.Printf("%-24s  %s\n", types.ToDecimal(amount).StringFixed(int32(token.DisplayDecimals())), token)
	}
}

func cmdStates(args []string, ks *wallet.Keystore, l *ledger) {
	fs := flag.NewFlagSet("states", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Only states owned by this wallet")
	fs.Parse(args)

	var owners []types.PublicKey
	if *walletName != "" {
		ids, err := ks.Identities(*walletName)
		if err != nil {
			fatal("%v", err)
		}
		for _, id := range ids {
			owners = append(owners, id.Key)
		}
		if len(owners) == 0 {
			fmt.Println("No identities.")
			return
		}
	}

	records, err := l.vault.StatesOf(owners...)
	if err != nil {
		fatal("list states: %v", err)
	}
	for _, r := range records {
		fmt.Printf("%-70s  %s  owner=%s notary=%s\n",
			r.Ref, types.FormatAmount(r.State.Amount), r.State.Owner.Short(), r.Notary)
	}
	root, err := l.vault.Commitment()
	if err != nil {
		fatal("commitment: %v", err)
	}
	fmt.Printf("\n%d state(s), commitment %s\n", len(records), root)
}

// ── Helpers ─────────────────────────────────────────────────────────────

func openWallet(ks *wallet.Keystore, name string) *wallet.Wallet {
	password, err := readPassword(fmt.Sprintf("Password for %s: ", name))
	if err != nil {
		fatal("read password: %v", err)
	}
	w, err := wallet.Open(ks, name, password)
	if err != nil {
		fatal("open wallet: %v", err)
	}
	return w
}

func mustIdentity(w *wallet.Wallet, name string) wallet.Identity {
	id, err := w.Identity(name)
	if err != nil {
		fatal("%v", err)
	}
	return id
}

// resolveKey accepts a wallet identity name or a hex public key.
func resolveKey(w *wallet.Wallet, s string) types.PublicKey {
	if id, err := w.Identity(s); err == nil {
		return id.Key
	}
	key, err := types.HexToPublicKey(s)
	if err != nil {
		fatal("%q is neither an identity nor a public key", s)
	}
	return key
}

// resolveIssuers maps comma-separated names to issuer parties, looking in
// the wallet first and then in the issuers recorded for the product.
func resolveIssuers(l *ledger, w *wallet.Wallet, code, names string) []types.Party {
	if names == "" {
		return nil
	}
	info, err := l.registry.Get(code)
	if err != nil {
		fatal("%v", err)
	}
	var out []types.Party
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if id, err := w.Identity(name); err == nil {
			out = append(out, id.Party())
			continue
		}
		found := false
		for _, p := range info.Issuers {
			if p.Name == name {
				out = append(out, p)
				found = true
			}
		}
		if !found {
			fatal("unknown issuer %q for %s", name, code)
		}
	}
	return out
}

// spendKeys returns the keys of the named identities, or every wallet key.
func spendKeys(w *wallet.Wallet, names string) []types.PublicKey {
	if names == "" {
		keys, err := w.Keys()
		if err != nil {
			fatal("wallet keys: %v", err)
		}
		return keys
	}
	var keys []types.PublicKey
	for _, name := range strings.Split(names, ",") {
		keys = append(keys, mustIdentity(w, strings.TrimSpace(name)).Key)
	}
	return keys
}

func parseRef(s string) []byte {
	if s == "" {
		return nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		fatal("invalid reference %q: %v", s, err)
	}
	return b
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	if cleanup != nil {
		cleanup()
	}
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
