package services

import "github.com/irfndi/leadlag-ai-go/internal/models"

const (
	AssetTypeCommodity = "commodity"
	AssetTypeEquity    = "equity"
	AssetTypeCrypto    = "crypto"
)

var defaultAssetUniverse = []models.Asset{
	{Symbol: "CL=F", Type: AssetTypeCommodity, Name: "Crude Oil"},
	{Symbol: "GC=F", Type: AssetTypeCommodity, Name: "Gold"},
	{Symbol: "SI=F", Type: AssetTypeCommodity, Name: "Silver"},
	{Symbol: "NG=F", Type: AssetTypeCommodity, Name: "Natural Gas"},
	{Symbol: "HG=F", Type: AssetTypeCommodity, Name: "Copper"},
	{Symbol: "ZC=F", Type: AssetTypeCommodity, Name: "Corn"},
	{Symbol: "ZW=F", Type: AssetTypeCommodity, Name: "Wheat"},
	{Symbol: "ZS=F", Type: AssetTypeCommodity, Name: "Soybeans"},
	{Symbol: "KC=F", Type: AssetTypeCommodity, Name: "Coffee"},
	{Symbol: "CT=F", Type: AssetTypeCommodity, Name: "Cotton"},
	{Symbol: "SPY", Type: AssetTypeEquity, Name: "SPDR S&P 500 ETF"},
	{Symbol: "QQQ", Type: AssetTypeEquity, Name: "Invesco QQQ Trust"},
	{Symbol: "AAPL", Type: AssetTypeEquity, Name: "Apple"},
	{Symbol: "MSFT", Type: AssetTypeEquity, Name: "Microsoft"},
	{Symbol: "NVDA", Type: AssetTypeEquity, Name: "NVIDIA"},
	{Symbol: "TSLA", Type: AssetTypeEquity, Name: "Tesla"},
	{Symbol: "GOOGL", Type: AssetTypeEquity, Name: "Alphabet"},
	{Symbol: "AMZN", Type: AssetTypeEquity, Name: "Amazon"},
	{Symbol: "META", Type: AssetTypeEquity, Name: "Meta Platforms"},
	{Symbol: "BRK-B", Type: AssetTypeEquity, Name: "Berkshire Hathaway"},
	{Symbol: "BTC-USD", Type: AssetTypeCrypto, Name: "Bitcoin"},
	{Symbol: "ETH-USD", Type: AssetTypeCrypto, Name: "Ethereum"},
	{Symbol: "SOL-USD", Type: AssetTypeCrypto, Name: "Solana"},
	{Symbol: "BNB-USD", Type: AssetTypeCrypto, Name: "BNB"},
	{Symbol: "XRP-USD", Type: AssetTypeCrypto, Name: "XRP"},
	{Symbol: "ADA-USD", Type: AssetTypeCrypto, Name: "Cardano"},
	{Symbol: "DOGE-USD", Type: AssetTypeCrypto, Name: "Dogecoin"},
	{Symbol: "DOT-USD", Type: AssetTypeCrypto, Name: "Polkadot"},
	{Symbol: "MATIC-USD", Type: AssetTypeCrypto, Name: "Polygon"},
	{Symbol: "LINK-USD", Type: AssetTypeCrypto, Name: "Chainlink"},
}

// DefaultAssetUniverse returns a copy of the commodity, equity and crypto symbols offered for
// analysis.
func DefaultAssetUniverse() []models.Asset {
	out := make([]models.Asset, len(defaultAssetUniverse))
	copy(out, defaultAssetUniverse)
	return out
}

// AssetsByType filters the default universe by asset type.
func AssetsByType(assetType string) []models.Asset {
	var out []models.Asset
	for _, a := range defaultAssetUniverse {
		if a.Type == assetType {
			out = append(out, a)
		}
	}
	return out
}
