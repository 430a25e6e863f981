// This program performs administrative tasks for the paystream services.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/paystream/app/tooling/admin/commands"
	"github.com/ardanlabs/paystream/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			log.Errorw("admin", "ERROR", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args conf.Args
		Auth struct {
			Secret   string        `conf:"default:paystream-development-secret-change-me,mask"`
			Issuer   string        `conf:"default:paystream"`
			TokenTTL time.Duration `conf:"default:8760h"`
		}
		Ledger struct {
			DBPath string `conf:"default:zblock/ledger.db"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "paystream administration",
		},
	}

	// The secret is shared with the node so both read the same variables.
	const prefix = "PAYSTREAM"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("admin", "config", out)

	return processCommands(cfg.Args, cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, cfg.Ledger.DBPath)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, secret string, issuer string, ttl time.Duration, dbPath string) error {
	switch args.Num(0) {
	case "genkey":
		if err := commands.GenKey(args.Num(1)); err != nil {
			return fmt.Errorf("key generation: %w", err)
		}

	case "gentoken":
		if err := commands.GenToken(secret, issuer, ttl, args.Num(1), args.Num(2)); err != nil {
			return fmt.Errorf("generating token: %w", err)
		}

	case "journal":
		var seq uint64
		if s := args.Num(1); s != "" {
			v, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seq: %w", err)
			}
			seq = v
		}
		if err := commands.Journal(dbPath, seq); err != nil {
			return fmt.Errorf("reading journal: %w", err)
		}

	default:
		fmt.Println("genkey:   generate a set of private/public key files")
		fmt.Println("gentoken: generate a JWT for an account: <account> [ADMIN|USER|RELAYER]")
		fmt.Println("journal:  print the ledger journal, or one record: [seq]")
		fmt.Println("provide a command to get more help.")
		return commands.ErrHelp
	}

	return nil
}
