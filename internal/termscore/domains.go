package termscore

import (
	"sort"
	"strings"

	"lectern/internal/textutil"
)

// Technical domains recognised by ClassifyDomains.
const (
	DomainCloud    = "cloud_infrastructure"
	DomainData     = "data_analytics"
	DomainML       = "machine_learning"
	DomainDevTools = "development_tools"
)

const domainHitWeight = 2.0

var domainIndicators = map[string][]string{
	DomainCloud: {
		"cloud", "kubernetes", "docker", "container", "instance", "compute", "storage",
		"network", "vpc", "server", "cluster", "scaling", "latency", "throughput",
	},
	DomainData: {
		"analytics", "bigquery", "warehouse", "database", "sql", "query", "etl", "pipeline",
		"processing", "visualization", "metrics", "hash table", "data structure",
	},
	DomainML: {
		"model", "training", "inference", "neural", "gpu", "tensor", "dataset", "prediction",
		"classification", "learning", "gradient descent", "backpropagation", "embedding",
		"transformer", "loss function", "learning rate", "activation function",
	},
	DomainDevTools: {
		"git", "testing", "monitoring", "logging", "deployment", "version", "repository",
		"code", "build", "release", "compiler", "runtime", "library",
	},
}

// ClassifyDomains scores text against each technical domain. Every indicator
// present adds the same weight, and scores are divided by the best domain's
// score so the leading domain scores 1. Text with no indicator scores 0
// everywhere.
func ClassifyDomains(text string) map[string]float64 {
	padded := " " + strings.Join(textutil.Tokenize(text), " ") + " "
	scores := make(map[string]float64, len(domainIndicators))
	var best float64
	for domain, indicators := range domainIndicators {
		var score float64
		for _, indicator := range indicators {
			if containsTerm(padded, indicator) {
				score += domainHitWeight
			}
		}
		scores[domain] = score
		if score > best {
			best = score
		}
	}
	if best > 0 {
		for domain := range scores {
			scores[domain] /= best
		}
	}
	return scores
}

// PrimaryDomain returns the highest scoring domain, breaking ties by name, or
// "" when nothing scored.
func PrimaryDomain(scores map[string]float64) string {
	domains := make([]string, 0, len(scores))
	for domain, score := range scores {
		if score > 0 {
			domains = append(domains, domain)
		}
	}
	if len(domains) == 0 {
		return ""
	}
	sort.Slice(domains, func(i, j int) bool {
		if scores[domains[i]] != scores[domains[j]] {
			return scores[domains[i]] > scores[domains[j]]
		}
		return domains[i] < domains[j]
	})
	return domains[0]
}

// containsTerm matches whole tokens, accepting a plural "s" on the last word.
func containsTerm(padded, term string) bool {
	return strings.Contains(padded, " "+term+" ") ||
		strings.Contains(padded, " "+term+"s ")
}
