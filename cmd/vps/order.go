package vps

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/internal/hosting"
)

const (
	productFlag   = "product"
	osFlag        = "os"
	hostnameFlag  = "hostname"
	sshPubkeyFlag = "ssh-pubkey-file"
)

func newOrder() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place a server order, paid from the bridged balance",
		RunE:  runOrder,
	}

	cmd.Flags().Int(productFlag, 0, "product id (see `vps products`)")
	cmd.Flags().Int(osFlag, 0, "operating system id")
	cmd.Flags().String(hostnameFlag, "", "server hostname (defaults to the configured one)")
	cmd.Flags().String(sshPubkeyFlag, "", "path to an SSH public key to install")

	_ = cmd.MarkFlagRequired(productFlag)
	_ = cmd.MarkFlagRequired(osFlag)

	return cmd
}

func runOrder(cmd *cobra.Command, _ []string) error {
	client, cfg, err := buildClient()
	if err != nil {
		return err
	}

	productID, _ := cmd.Flags().GetInt(productFlag)
	osID, _ := cmd.Flags().GetInt(osFlag)
	hostname, _ := cmd.Flags().GetString(hostnameFlag)
	sshPubkeyFile, _ := cmd.Flags().GetString(sshPubkeyFlag)

	if hostname == "" {
		hostname = cfg.Hosting.Hostname
	}

	sshPubkey := ""
	if sshPubkeyFile != "" {
		content, err := os.ReadFile(sshPubkeyFile)
		if err != nil {
			return errors.Wrap(err, "failed to read ssh public key")
		}
		sshPubkey = strings.TrimSpace(string(content))
	}

	response, err := client.PlaceOrder(cmd.Context(), &hosting.OrderRequest{
		BillingCycle:  cfg.Hosting.BillingCycle,
		PaymentMethod: cfg.Hosting.PaymentMethod,
		ApplyCredit:   true,
		Items: []hosting.OrderItem{
			{
				ProductID: productID,
				OS:        osID,
				Hostname:  hostname,
				SSHPubKey: sshPubkey,
			},
		},
	})
	if err != nil {
		return err
	}

	formatted, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to format order response")
	}

	fmt.Println(string(formatted))

	return nil
}
