package etl

import (
	"context"

	"github.com/BartekS5/irisetl/internal/dataset"
	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/models"
	"github.com/BartekS5/irisetl/pkg/objectstore"
)

// ObjectStoreExtractor downloads the reference Parquet file and decodes it.
type ObjectStoreExtractor struct {
	Gateway    objectstore.Gateway
	Bucket     string
	Key        string
	LocalPath  string
	NumClasses int
}

func (e *ObjectStoreExtractor) Extract(ctx context.Context) (models.LabeledDataset, error) {
	if err := e.Gateway.Download(ctx, e.Bucket, e.Key, e.LocalPath); err != nil {
		return models.LabeledDataset{}, etlerrors.NewExtractionError("download "+e.Bucket+"/"+e.Key, err)
	}

	numClasses := e.NumClasses
	if numClasses == 0 {
		numClasses = models.IrisClasses
	}
	ds, err := dataset.ReadParquet(e.LocalPath, numClasses)
	if err != nil {
		return models.LabeledDataset{}, etlerrors.NewExtractionError("decode "+e.LocalPath, err)
	}
	return ds, nil
}
