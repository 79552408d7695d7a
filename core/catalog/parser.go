package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/AvaProtocol/ap-airdrop/model"
)

var (
	blockSeparator = regexp.MustCompile(`\n\s*\n`)

	nameLine    = regexp.MustCompile(`(?im)^\s*(?:name|testnet|network)\s*[:\-]\s*(.+?)\s*$`)
	chainLine   = regexp.MustCompile(`(?im)^\s*chain\s*[:\-]\s*(.+?)\s*$`)
	rpcLine     = regexp.MustCompile(`(?im)^\s*rpc(?:\s*url)?\s*[:\-]\s*(\S+)`)
	scoreLine   = regexp.MustCompile(`(?i)\bscore\s*[:=]?\s*(\d+(?:\.\d+)?)`)
	outOfTen    = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*/\s*10\b`)
	urlPattern  = regexp.MustCompile(`https?://[^\s<>"'()\[\]]+`)
	labeledAddr = regexp.MustCompile(`(?im)^\s*[-*]?\s*([A-Za-z][\w .-]*?)\s*[:=]\s*(0x[0-9a-fA-F]{40})\b`)
	anyAddr     = regexp.MustCompile(`\b0x[0-9a-fA-F]{40}\b`)
	bullet      = regexp.MustCompile(`^[\s#*>\-\d.)]+`)

	knownChains = []string{
		"Ethereum", "Base", "Arbitrum", "Optimism", "Polygon", "Solana", "Avalanche",
		"BNB", "Monad", "Berachain", "Scroll", "Linea", "zkSync", "Starknet", "Sui", "Aptos",
	}

	chainPatterns = lo.Map(knownChains, func(chain string, _ int) *regexp.Regexp {
		return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(chain) + `\b`)
	})

	taskKeywords = []struct {
		kind    model.TaskKind
		pattern *regexp.Regexp
	}{
		{model.TaskFaucet, regexp.MustCompile(`(?i)\bfaucets?\b`)},
		{model.TaskSwap, regexp.MustCompile(`(?i)\b(swaps?|dex|trade|trading)\b`)},
		{model.TaskBridge, regexp.MustCompile(`(?i)\bbridg(e|es|ing)\b`)},
		{model.TaskNFTMint, regexp.MustCompile(`(?i)\b(mint(ing)?|nfts?)\b`)},
		{model.TaskStake, regexp.MustCompile(`(?i)\b(stak(e|ing)|delegat(e|ion))\b`)},
	}
)

// ParseDescriptors extracts network descriptors from free text, for example a
// pasted list of testnets. Blocks are separated by blank lines. Every block
// yields at most one network, blocks without a usable name are dropped.
func ParseDescriptors(text string) []*model.Network {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var networks []*model.Network
	for _, block := range blockSeparator.Split(text, -1) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		if n := parseBlock(block); n != nil {
			networks = append(networks, n)
		}
	}

	return model.UniqueNetworks(networks)
}

func parseBlock(block string) *model.Network {
	n := &model.Network{
		Name:  parseName(block),
		Chain: parseChain(block),
		Tasks: parseTasks(block),
		Score: parseScore(block),
	}
	if n.Name == "" {
		return nil
	}

	if m := rpcLine.FindStringSubmatch(block); m != nil {
		n.RPC = m[1]
	}

	for _, u := range urlPattern.FindAllString(block, -1) {
		u = strings.TrimRight(u, ".,;")
		if n.RPC == "" && strings.Contains(strings.ToLower(u), "rpc") {
			n.RPC = u
			continue
		}
		if u != n.RPC {
			n.Links = append(n.Links, u)
		}
	}
	n.Links = lo.Uniq(n.Links)

	n.ContractAddresses = parseAddresses(block)
	return n
}

func parseName(block string) string {
	if m := nameLine.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1])
	}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(bullet.ReplaceAllString(line, ""))
		line = strings.Trim(line, "*_`: ")
		if line == "" || urlPattern.MatchString(line) {
			continue
		}
		// "Sepolia - faucet and swaps" keeps only the head
		if head, _, found := strings.Cut(line, " - "); found {
			line = head
		}
		return strings.TrimSpace(line)
	}

	return ""
}

func parseChain(block string) string {
	if m := chainLine.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1])
	}

	for i, re := range chainPatterns {
		if re.MatchString(block) {
			return knownChains[i]
		}
	}

	return "Unknown"
}

// parseTasks lists the task kinds mentioned in the block in order of first
// mention. Normalize falls back to custom when nothing matches.
func parseTasks(block string) []model.TaskKind {
	type hit struct {
		kind model.TaskKind
		at   int
	}

	var hits []hit
	for _, kw := range taskKeywords {
		if loc := kw.pattern.FindStringIndex(block); loc != nil {
			hits = append(hits, hit{kind: kw.kind, at: loc[0]})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })

	return lo.Map(hits, func(h hit, _ int) model.TaskKind { return h.kind })
}

func parseScore(block string) float64 {
	for _, re := range []*regexp.Regexp{scoreLine, outOfTen} {
		if m := re.FindStringSubmatch(block); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v
			}
		}
	}
	return 0
}

func parseAddresses(block string) map[string]string {
	addresses := map[string]string{}

	for _, m := range labeledAddr.FindAllStringSubmatch(block, -1) {
		addresses[strings.ToLower(strings.TrimSpace(m[1]))] = m[2]
	}

	known := lo.Values(addresses)
	i := 1
	for _, addr := range anyAddr.FindAllString(block, -1) {
		if lo.Contains(known, addr) {
			continue
		}
		addresses[fmt.Sprintf("contract%d", i)] = addr
		known = append(known, addr)
		i++
	}

	if len(addresses) == 0 {
		return nil
	}
	return addresses
}
