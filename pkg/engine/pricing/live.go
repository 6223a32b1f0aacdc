package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

// PricingAPI is the AWS Pricing surface the live source needs.
type PricingAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

type priceRecord struct {
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// LiveSource fetches on-demand list prices from the AWS Pricing API with a
// JSON file cache. Every lookup error is returned to the caller, which
// falls back to the static tables.
type LiveSource struct {
	Client    PricingAPI
	cachePath string
	ttl       time.Duration

	mu    sync.RWMutex
	cache map[string]priceRecord
}

// NewLiveSource builds a live source. The Pricing API is global and served
// from us-east-1.
func NewLiveSource(cfg awssdk.Config, cacheDir string) *LiveSource {
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}
	pCfg := cfg.Copy()
	pCfg.Region = "us-east-1"

	s := &LiveSource{
		Client:    pricing.NewFromConfig(pCfg),
		cachePath: filepath.Join(cacheDir, "pricing.json"),
		ttl:       15 * 24 * time.Hour,
		cache:     make(map[string]priceRecord),
	}
	s.loadCache()
	return s
}

// InstanceMonthly returns the monthly on-demand cost for a Linux instance
// of the given type.
func (s *LiveSource) InstanceMonthly(ctx context.Context, region, instanceType string) (float64, error) {
	hourly, err := s.lookup(ctx, fmt.Sprintf("ec2-%s-%s", region, instanceType), []types.Filter{
		termMatch("productFamily", "Compute Instance"),
		termMatch("regionCode", region),
		termMatch("instanceType", instanceType),
		termMatch("tenancy", "Shared"),
		termMatch("operatingSystem", "Linux"),
		termMatch("preInstalledSw", "NA"),
	})
	if err != nil {
		return 0, err
	}
	return hourly * HoursPerMonth, nil
}

// VolumeRate returns the per-GB-month storage rate for an EBS volume type.
func (s *LiveSource) VolumeRate(ctx context.Context, region, volumeType string) (float64, error) {
	var family string
	switch volumeType {
	case "gp2":
		family = "General Purpose"
	case "gp3":
		family = "General Purpose SSD (gp3)"
	case "io1", "io2":
		family = "Provisioned IOPS SSD"
	case "st1":
		family = "Throughput Optimized HDD"
	case "sc1":
		family = "Cold HDD"
	case "standard":
		family = "Magnetic"
	default:
		return 0, fmt.Errorf("no pricing filter for volume type %q", volumeType)
	}

	return s.lookup(ctx, fmt.Sprintf("ebs-%s-%s", region, volumeType), []types.Filter{
		termMatch("productFamily", "Storage"),
		termMatch("regionCode", region),
		termMatch("volumeType", family),
	})
}

func (s *LiveSource) lookup(ctx context.Context, cacheKey string, filters []types.Filter) (float64, error) {
	s.mu.RLock()
	record, ok := s.cache[cacheKey]
	s.mu.RUnlock()
	if ok && time.Since(time.Unix(record.Timestamp, 0)) < s.ttl {
		return record.Price, nil
	}

	out, err := s.Client.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: awssdk.String("AmazonEC2"),
		Filters:     append(filters, termMatch("serviceCode", "AmazonEC2")),
		MaxResults:  awssdk.Int32(1),
	})
	if err != nil {
		return 0, err
	}
	if len(out.PriceList) == 0 {
		return 0, fmt.Errorf("no price list entry for %s", cacheKey)
	}

	price, err := parsePriceDocument(out.PriceList[0])
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.cache[cacheKey] = priceRecord{Price: price, Timestamp: time.Now().Unix()}
	s.saveCache()
	s.mu.Unlock()

	return price, nil
}

func termMatch(field, value string) types.Filter {
	return types.Filter{
		Type:  types.FilterTypeTermMatch,
		Field: awssdk.String(field),
		Value: awssdk.String(value),
	}
}

func (s *LiveSource) loadCache() {
	data, err := os.ReadFile(s.cachePath)
	if err != nil {
		return
	}
	json.Unmarshal(data, &s.cache)
}

func (s *LiveSource) saveCache() {
	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return
	}
	os.MkdirAll(filepath.Dir(s.cachePath), 0o755)
	os.WriteFile(s.cachePath, data, 0o644)
}

// parsePriceDocument extracts the first USD on-demand rate from one Pricing
// API product document.
func parsePriceDocument(doc string) (float64, error) {
	type priceDimension struct {
		PricePerUnit map[string]string `json:"pricePerUnit"`
	}
	type term struct {
		PriceDimensions map[string]priceDimension `json:"priceDimensions"`
	}
	type product struct {
		Terms map[string]map[string]term `json:"terms"`
	}

	var p product
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return 0, err
	}

	for _, t := range p.Terms["OnDemand"] {
		for _, dim := range t.PriceDimensions {
			if usd, ok := dim.PricePerUnit["USD"]; ok {
				if v, err := strconv.ParseFloat(usd, 64); err == nil {
					return v, nil
				}
			}
		}
	}
	return 0, fmt.Errorf("no USD on-demand rate in price document")
}
