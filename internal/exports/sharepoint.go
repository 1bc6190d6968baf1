package exports

import (
	"context"

	"github.com/JaimeStill/docbridge/internal/graph"
)

// SharePoint uploads exports into the client's configured folder.
type SharePoint struct {
	Client *graph.Client
}

func (s SharePoint) Target() string {
	return "sharepoint"
}

func (s SharePoint) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	link, err := s.Client.Upload(ctx, name, data, contentType)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}
