package textsplitter

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenLenFunc returns a LenFunc counting tiktoken tokens for the given
// encoding (for example "cl100k_base") or model name.
func TokenLenFunc(encodingOrModel string) (func(string) int, error) {
	tke, err := tiktoken.GetEncoding(encodingOrModel)
	if err != nil {
		tke, err = tiktoken.EncodingForModel(encodingOrModel)
		if err != nil {
			return nil, fmt.Errorf("textsplitter: token encoding %q: %w", encodingOrModel, err)
		}
	}
	return func(s string) int {
		return len(tke.Encode(s, nil, nil))
	}, nil
}
