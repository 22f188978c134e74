package cmd

import (
	"fmt"

	"github.com/georgecao/Beancount-CSVImporter/pkg/converter"
	"github.com/spf13/cobra"
)

var (
	explainProfile string
	explainRole    string
)

// explainCmd represents the explain command.
var explainCmd = &cobra.Command{
	Use:   "explain KEYWORD...",
	Short: "Show how keywords resolve to an account",
	Long: `Show how a keyword list resolves against a profile's account table.

Keywords are tried in order, as payee, narration and category are during
extraction. For each keyword the matching entry and its match length are
printed, followed by the account the whole list resolves to.

Example:
  csv-import explain --profile wechat --role credit 星巴克 拿铁
  csv-import explain --profile alipay --role assets 花呗`,
	Args: cobra.MinimumNArgs(1),
	Run:  runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&explainProfile, "profile", "", "Importer profile name (required)")
	explainCmd.Flags().StringVar(&explainRole, "role", "debit", "Account table: assets, debit or credit")

	explainCmd.MarkFlagRequired("profile")
}

func runExplain(cmd *cobra.Command, args []string) {
	a, err := loadApp()
	exitOnError(err, "failed to initialize")

	im, err := a.byName(explainProfile)
	exitOnError(err, "unknown profile")

	role, err := converter.ParseRole(explainRole)
	exitOnError(err, "invalid role")

	table, err := im.Accounts().Table(role)
	exitOnError(err, "invalid account table")

	fallback, err := table.Default()
	exitOnError(err, "invalid account table")
	fmt.Printf("%s table of %s, DEFAULT %s\n", role, im.Name(), fallback)

	for _, keyword := range args {
		account, length, ok := table.Match(keyword)
		if !ok {
			fmt.Printf("%s\t(no match)\n", keyword)
			continue
		}
		fmt.Printf("%s\t%s\t(%d characters)\n", keyword, account, length)
	}

	account, err := im.Accounts().Resolve(directionOf(role), args)
	exitOnError(err, "failed to resolve account")
	fmt.Printf("=> %s\n", account)
}

// directionOf maps a table back to the direction that consults it.
func directionOf(role converter.Role) converter.Direction {
	switch role {
	case converter.RoleDebit:
		return converter.Debit
	case converter.RoleCredit:
		return converter.Credit
	default:
		return converter.Uncertain
	}
}
