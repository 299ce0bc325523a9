package get

import (
	"context"
	"fmt"
	"net/http"

	models "gomarket_feedbacks/internal/wildberries/business/models/get"
	"gomarket_feedbacks/pkg/logger"
)

type JSONGetter interface {
	GetJSON(ctx context.Context, url string, header http.Header, response interface{}) error
}

type ShardLocator interface {
	FindShard(ctx context.Context, path string) (Shard, error)
}

// CardFetcher downloads card.json from whichever basket host serves the product.
type CardFetcher struct {
	client  JSONGetter
	locator ShardLocator
	scheme  string
	log     logger.Logger
}

func NewCardFetcher(client JSONGetter, locator ShardLocator, scheme string, log logger.Logger) *CardFetcher {
	if scheme == "" {
		scheme = "https"
	}
	return &CardFetcher{client: client, locator: locator, scheme: scheme, log: log}
}

func (f *CardFetcher) FetchProductInfo(ctx context.Context, nmID int) (*models.ProductInfo, error) {
	path := CardPath(nmID)

	shard, err := f.locator.FindShard(ctx, path)
	if err != nil {
		return nil, err
	}

	var info models.ProductInfo
	if err := f.client.GetJSON(ctx, shard.URL(f.scheme, path), nil, &info); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.log.Error("Failed to get product card %d from %s: %v", nmID, shard.Host, err)
		return nil, fmt.Errorf("%w: nm_id %d on %s: %v", ErrProductNotFound, nmID, shard.Host, err)
	}

	f.log.Log("Got product card %d, imt_id: %d, colors: %d", nmID, info.ImtID, len(info.Colors))
	return &info, nil
}
