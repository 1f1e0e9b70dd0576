// internal/worker/load_functions.go
package worker

import (
	"context"
	"log"
	"time"
)

// Sample load functions for the demo configuration. Each simulates one
// stage of bringing a table online.

// LoadSchema simulates reading and validating a table schema.
func LoadSchema(ctx context.Context, data map[string]interface{}) error {
	log.Printf("Loading schema with data %v", data)
	return sleep(ctx, 200*time.Millisecond)
}

// LoadData simulates loading table data parts.
func LoadData(ctx context.Context, data map[string]interface{}) error {
	log.Println("Loading data parts")
	return sleep(ctx, 500*time.Millisecond)
}

// BuildIndexes simulates building secondary indexes over loaded data.
func BuildIndexes(ctx context.Context, data map[string]interface{}) error {
	log.Println("Building indexes")
	return sleep(ctx, 300*time.Millisecond)
}

// WarmCache simulates priming caches once everything else is in place.
func WarmCache(ctx context.Context, data map[string]interface{}) error {
	log.Println("Warming cache")
	return sleep(ctx, 100*time.Millisecond)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// RegisterDefaults registers the sample load functions under the names
// used by the shipped configuration.
func RegisterDefaults(r *Registry) error {
	defaults := map[string]LoadFunction{
		"loadSchemaFunction":   LoadSchema,
		"loadDataFunction":     LoadData,
		"buildIndexesFunction": BuildIndexes,
		"warmCacheFunction":    WarmCache,
	}
	for name, fn := range defaults {
		if err := r.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}
