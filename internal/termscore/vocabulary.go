package termscore

// Built-in vocabulary. Configured technical phrases and learned knowledge-base
// terms extend these at runtime.

var stopwords = toSet(
	"a", "about", "above", "after", "again", "all", "also", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
	"can", "could", "did", "do", "does", "doing", "down", "during",
	"each", "even", "every", "few", "for", "from", "further", "get", "gets", "going", "gonna", "got",
	"had", "has", "have", "having", "he", "her", "here", "hers", "him", "his", "how",
	"i", "if", "in", "into", "is", "it", "its", "itself", "just", "kind", "know", "let", "like", "lot",
	"me", "might", "more", "most", "much", "must", "my", "no", "nor", "not", "now",
	"of", "off", "okay", "on", "once", "one", "only", "or", "other", "our", "out", "over", "own",
	"really", "right", "said", "same", "say", "see", "she", "should", "so", "some", "such",
	"than", "that", "the", "their", "them", "then", "there", "these", "they", "thing", "things", "think",
	"this", "those", "through", "to", "too", "two", "um", "uh", "under", "until", "up", "us", "use", "used", "using",
	"very", "want", "was", "way", "we", "well", "were", "what", "when", "where", "which", "while", "who",
	"why", "will", "with", "would", "yeah", "you", "your", "yours",
)

var technicalIndicators = toSet(
	"activation", "algorithm", "api", "array", "attention", "backpropagation", "batch", "binary",
	"cache", "class", "classification", "classifier", "cluster", "compiler", "container", "convolution",
	"database", "dataset", "decoder", "derivative", "distribution", "docker", "embedding", "encoder",
	"entropy", "function", "gpu", "gradient", "graph", "hash", "inference", "interface", "kernel",
	"kubernetes", "latency", "layer", "library", "matrix", "memory", "method", "model", "network",
	"neural", "node", "object", "optimization", "optimizer", "parameter", "pipeline", "pointer",
	"probability", "protocol", "query", "recursion", "regression", "runtime", "server", "sigmoid",
	"softmax", "sql", "tensor", "thread", "throughput", "training", "transformer", "tree", "variable",
	"vector", "weights",
)

var technicalPhrases = toSet(
	"activation function", "binary search", "computer vision", "convolutional neural network",
	"data structure", "decision tree", "deep learning", "gradient descent", "hash table",
	"learning rate", "linear regression", "logistic regression", "loss function", "machine learning",
	"natural language processing", "neural network", "operating system", "random forest",
	"reinforcement learning", "support vector machine", "time complexity",
)

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
