package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/paystream/business/web/auth"
	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
)

// GenToken generates a JWT for the specified account and role. The role
// defaults to USER.
func GenToken(secret string, issuer string, ttl time.Duration, account string, role string) error {
	if account == "" {
		fmt.Println("help: gentoken <account> [ADMIN|USER|RELAYER]")
		return ErrHelp
	}

	accountID, err := accounts.ToAccountID(account)
	if err != nil {
		return err
	}

	role = strings.ToUpper(role)
	switch role {
	case "":
		role = auth.RoleUser
	case auth.RoleAdmin, auth.RoleUser, auth.RoleRelayer:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	a, err := auth.New(secret, issuer)
	if err != nil {
		return err
	}

	token, err := a.GenerateToken(accountID, []string{role}, ttl)
	if err != nil {
		return err
	}

	fmt.Printf("-----BEGIN TOKEN-----\n%s\n-----END TOKEN-----\n", token)

	return nil
}
