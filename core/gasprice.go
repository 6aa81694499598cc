package core

import (
	"math"
	"math/big"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aurumchain/go-aurum/common"
)

// gasPriceSampleLimit bounds how many recent blocks feed the estimate.
const gasPriceSampleLimit = 1000

// TxPriority selects which octile a gas price query refers to.
type TxPriority int

const (
	LowestPrice TxPriority = iota
	CheapestPrice
	DefaultPrice
	DearestPrice
	HighestPrice
)

func (p TxPriority) octile() int {
	switch p {
	case LowestPrice:
		return 0
	case CheapestPrice:
		return 2
	case DefaultPrice:
		return 4
	case DearestPrice:
		return 6
	default:
		return 8
	}
}

// GasPricer estimates gas prices for transactions entering the pending state
// and for work preparation.
type GasPricer interface {
	// Update refreshes the estimate from recent chain history.
	Update(chain *BlockChain)
	// Ask returns the price the node demands to include a transaction.
	Ask() *big.Int
	// Bid returns a recommended price for the given priority.
	Bid(priority TxPriority) *big.Int
}

// TrivialGasPricer returns a fixed price regardless of chain history.
type TrivialGasPricer struct {
	price *big.Int
}

// NewTrivialGasPricer constructs a pricer pinned to the given price.
func NewTrivialGasPricer(price *big.Int) *TrivialGasPricer {
	if price == nil {
		price = new(big.Int)
	}
	return &TrivialGasPricer{price: price}
}

func (gp *TrivialGasPricer) Update(*BlockChain)      {}
func (gp *TrivialGasPricer) Ask() *big.Int           { return new(big.Int).Set(gp.price) }
func (gp *TrivialGasPricer) Bid(TxPriority) *big.Int { return new(big.Int).Set(gp.price) }

// BasicGasPricer fits the gas price distribution of recent blocks, weighted
// by gas used, and serves nine octiles of the fitted distribution.
type BasicGasPricer struct {
	mu      sync.RWMutex
	octiles [9]*big.Int
	ask     TxPriority
	bid     TxPriority
}

// NewBasicGasPricer constructs a pricer answering Ask and Bid from the given
// octiles of the fitted distribution.
func NewBasicGasPricer(ask, bid TxPriority, initial *big.Int) *BasicGasPricer {
	gp := &BasicGasPricer{ask: ask, bid: bid}
	if initial == nil {
		initial = new(big.Int)
	}
	for i := range gp.octiles {
		gp.octiles[i] = new(big.Int).Set(initial)
	}
	return gp
}

func (gp *BasicGasPricer) Ask() *big.Int {
	gp.mu.RLock()
	defer gp.mu.RUnlock()
	return new(big.Int).Set(gp.octiles[gp.ask.octile()])
}

func (gp *BasicGasPricer) Bid(priority TxPriority) *big.Int {
	gp.mu.RLock()
	defer gp.mu.RUnlock()
	return new(big.Int).Set(gp.octiles[priority.octile()])
}

// Octiles returns a copy of the current nine octiles.
func (gp *BasicGasPricer) Octiles() [9]*big.Int {
	gp.mu.RLock()
	defer gp.mu.RUnlock()
	var out [9]*big.Int
	for i, o := range gp.octiles {
		out[i] = new(big.Int).Set(o)
	}
	return out
}

// Update scans up to 1000 blocks back from the chain head, building a
// gas-price-versus-gas-used distribution, and refits the octiles.
func (gp *BasicGasPricer) Update(chain *BlockChain) {
	dist := make(map[string]*sample)
	total := new(big.Int)

	count := 0
	hash := chain.CurrentHash()
	for count < gasPriceSampleLimit && hash != (common.Hash{}) {
		header := chain.Info(hash)
		if header == nil {
			break
		}
		txs := chain.Transactions(hash)
		if len(txs) > 0 {
			receipts := chain.Receipts(hash)
			for i, tx := range txs {
				if i >= len(receipts) {
					break
				}
				used := new(big.Int).SetUint64(receipts[i].GasUsed)
				price := tx.GasPrice()
				key := string(price.Bytes())
				if s, ok := dist[key]; ok {
					s.weight.Add(s.weight, used)
				} else {
					dist[key] = &sample{price: price, weight: used}
				}
				total.Add(total, used)
			}
		}
		hash = header.ParentHash
		count++
	}
	if total.Sign() == 0 {
		return
	}

	// Weighted mean and variance of the observed prices.
	var (
		lo, hi  *big.Int
		meanNum = new(big.Int)
	)
	for _, s := range dist {
		meanNum.Add(meanNum, new(big.Int).Mul(s.price, s.weight))
		if lo == nil || s.price.Cmp(lo) < 0 {
			lo = s.price
		}
		if hi == nil || s.price.Cmp(hi) > 0 {
			hi = s.price
		}
	}
	mean := new(big.Int).Div(meanNum, total)

	sdSquaredNum := new(big.Int)
	for _, s := range dist {
		diff := new(big.Int).Sub(s.price, mean)
		diff.Mul(diff, diff)
		sdSquaredNum.Add(sdSquaredNum, diff.Mul(diff, s.weight))
	}
	sdSquared := new(big.Int).Div(sdSquaredNum, total)

	var octiles [9]*big.Int
	if sdSquared.Sign() > 0 {
		meanF, _ := new(big.Float).SetInt(mean).Float64()
		sdSquaredF, _ := new(big.Float).SetInt(sdSquared).Float64()
		normalizedSd := math.Sqrt(sdSquaredF) / meanF
		if normalizedSd < 0.01 {
			normalizedSd = 0.01
		}
		// Octiles of a normal distribution centered on 1, scaled by the mean.
		gauss := distuv.Normal{Mu: 1, Sigma: normalizedSd}
		octiles[0] = new(big.Int).Set(lo)
		for i := 1; i < 8; i++ {
			q := gauss.Quantile(float64(i) / 8.0)
			scaled, _ := new(big.Float).Mul(big.NewFloat(q), new(big.Float).SetInt(mean)).Int(nil)
			octiles[i] = scaled
		}
		octiles[8] = new(big.Int).Set(hi)
	} else {
		for i := 0; i < 9; i++ {
			o := new(big.Int).Mul(big.NewInt(int64(i+1)), mean)
			octiles[i] = o.Div(o, big.NewInt(5))
		}
	}

	// The normal fit can undershoot the observed minimum at high variance;
	// clamp to keep the octiles monotone.
	for i := 1; i < 9; i++ {
		if octiles[i].Cmp(octiles[i-1]) < 0 {
			octiles[i] = new(big.Int).Set(octiles[i-1])
		}
	}

	gp.mu.Lock()
	gp.octiles = octiles
	gp.mu.Unlock()
}

type sample struct {
	price  *big.Int
	weight *big.Int
}
