package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Deploy deploys a contract to a fresh network, prints its getters and checks expectations
var Deploy = &cobra.Command{
	Use:     "deploy <contract> [args...]",
	Short:   "Deploy a contract template and print its view methods",
	Example: `  harness deploy FakeContract "Test COIN" TC 8 50 --expect getTokensPerBlock=8 --expect getBlockFreezeInterval=50`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runDeploy,
}

func init() {
	Deploy.Flags().StringArray("expect", nil, "method=value, fails when the getter returns something else")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	expectations, err := cmd.Flags().GetStringArray("expect")
	if err != nil {
		return err
	}

	h, err := newHarness()
	if err != nil {
		return err
	}
	defer h.Close()

	factory, err := h.GetContractFactory(args[0])
	if err != nil {
		return err
	}

	values, err := native.ParseArguments(factory.ABI().Constructor.Inputs, args[1:])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	contract, err := factory.Deploy(ctx, values...)
	if err != nil {
		return err
	}
	if err := contract.Deployed(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "contract: %s\n", contract.Name())
	fmt.Fprintf(out, "address:  %s\n", contract.Address().String())
	fmt.Fprintf(out, "tx hash:  %s\n", contract.DeployTxHash().String())
	fmt.Fprintf(out, "height:   %d\n", contract.Receipt().Height)

	methods := make([]string, 0)
	for name, method := range contract.ABI().Methods {
		if method.IsConstant() && len(method.Inputs) == 0 {
			methods = append(methods, name)
		}
	}
	sort.Strings(methods)

	for _, name := range methods {
		results, err := contract.Call(ctx, name)
		if err != nil {
			return err
		}
		formatted := make([]string, 0, len(results))
		for _, result := range results {
			formatted = append(formatted, native.FormatValue(result))
		}
		fmt.Fprintf(out, "%s() = %s\n", name, strings.Join(formatted, ", "))
	}

	for _, expectation := range expectations {
		parts := strings.SplitN(expectation, "=", 2)
		if len(parts) != 2 {
			return errors.Errorf("invalid expectation %q, should be method=value", expectation)
		}
		if err := contract.Expect(ctx, parts[0], parts[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "ok: %s() == %s\n", parts[0], parts[1])
	}

	return nil
}
