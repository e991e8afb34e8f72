package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/timeherenow-example/sdk"
)

/* validate-identity - Standalone CLI tool to validate identity.yaml
 * Usage: go run cmd/validate-identity/main.go [identity.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	identityFile := "identity.yaml"
	if len(os.Args) > 1 {
		identityFile = os.Args[1]
	}

	fmt.Printf("Validating identity file: %s\n", identityFile)
	fmt.Println(strings.Repeat("-", 50))

	loader := sdk.NewIdentityLoader()
	if err := loader.Load(identityFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	identity, err := loader.Identity()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	routes, _ := identity.PermissionedRouteCount()

	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("   ID:                  %s\n", identity.ID)
	fmt.Printf("   API endpoint:        %s\n", identity.APIEndpoint)
	fmt.Printf("   Webhook URL:         %s\n", identity.WebhookURL)
	fmt.Printf("   JWT duration:        %ds\n", identity.JWTDuration)
	fmt.Printf("   Max requests:        %d per %ds\n", identity.MaxRequests, identity.MaxRequestsWindow)
	fmt.Printf("   Permissioned routes: %d\n", routes)

	if identity.WebhookURL == "" {
		fmt.Printf("\n⚠ webhook_url is empty, the api binary will refuse to start\n")
	}
	os.Exit(0)
}
