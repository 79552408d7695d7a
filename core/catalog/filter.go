package catalog

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/samber/lo"

	"github.com/AvaProtocol/ap-airdrop/model"
)

// exprEnv exposes a network to filter expressions, e.g.
//
//	score >= 7 && chain == "Ethereum" && "faucet" in tasks
func exprEnv(n *model.Network) map[string]any {
	contracts := n.ContractAddresses
	if contracts == nil {
		contracts = map[string]string{}
	}

	return map[string]any{
		"name":              n.Name,
		"chain":             n.Chain,
		"tasks":             lo.Map(n.Tasks, func(k model.TaskKind, _ int) string { return string(k) }),
		"score":             n.Score,
		"rpc":               n.RPC,
		"links":             append([]string{}, n.Links...),
		"contractAddresses": contracts,
	}
}

// CompileFilter checks a filter expression once so it can be applied to many
// networks
func CompileFilter(expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression, expr.Env(exprEnv(&model.Network{})), expr.AsBool())
	if err != nil {
		return nil, model.WrapError(model.ValidationError, fmt.Sprintf("invalid filter %q", expression), err)
	}
	return program, nil
}

// Filter keeps the networks matching expression, an empty expression keeps all
func Filter(networks []*model.Network, expression string) ([]*model.Network, error) {
	if strings.TrimSpace(expression) == "" {
		return networks, nil
	}

	program, err := CompileFilter(expression)
	if err != nil {
		return nil, err
	}

	var out []*model.Network
	for _, n := range networks {
		result, err := expr.Run(program, exprEnv(n))
		if err != nil {
			return nil, model.WrapError(model.ValidationError, fmt.Sprintf("cannot evaluate filter on %s", n.Name), err)
		}
		if result.(bool) {
			out = append(out, n)
		}
	}

	return out, nil
}
