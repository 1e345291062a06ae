package cli

import (
	"context"
	"fmt"

	"github.com/colinaird/pomblock/internal/app"
)

type AuthCmd struct {
	Account string `help:"Calendar account to authenticate." default:""`
	Code    string `help:"Authorization code from the consent redirect."`
}

func (c *AuthCmd) Run(ctx *Context) error {
	res, err := ctx.App.AuthenticateGoogle(context.Background(), c.Account, c.Code)
	if err != nil {
		return err
	}

	switch res.Status {
	case app.AuthStatusAuthenticated:
		fmt.Println("Authenticated")
		if res.ExpiresAt != nil {
			fmt.Printf("Token expires at %s\n", res.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
		}
	case app.AuthStatusAuthURL:
		fmt.Println("Authorization required. Visit the URL below, then run:")
		fmt.Println("  pomblock auth --code <code>")
		fmt.Println()
		fmt.Println(res.AuthorizationURL)
	}
	return nil
}
