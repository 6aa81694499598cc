package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
)

func TestTrivialGasPricer(t *testing.T) {
	gp := NewTrivialGasPricer(big.NewInt(1337))
	gp.Update(nil)
	require.Equal(t, big.NewInt(1337), gp.Ask())
	require.Equal(t, big.NewInt(1337), gp.Bid(HighestPrice))
}

// buildPricedChain imports blocks whose transactions carry the given gas
// prices, one block per price batch.
func buildPricedChain(t *testing.T, prices [][]int64) *BlockChain {
	t.Helper()
	acc := newTestAccount(t)
	chain := newTestChain(t, testGenesis(acc.addr))
	bq := NewBlockQueue(nil, testLogger)

	nonce := uint64(0)
	parent := chain.Genesis()
	for _, batch := range prices {
		var txs types.Transactions
		for _, price := range batch {
			tx := types.NewTransaction(nonce, common.HexToAddress("0xaa"), big.NewInt(1), 21000, big.NewInt(price), nil)
			signed, err := types.SignTx(tx, acc.key)
			require.NoError(t, err)
			txs = append(txs, signed)
			nonce++
		}
		block := makeBlock(t, chain, parent, common.HexToAddress("0xc0"), txs, 5)
		require.Equal(t, ImportSuccess, bq.Import(block, chain, false))
		live, _, _ := chain.Sync(bq, 100)
		require.NotEmpty(t, live)
		parent = block
	}
	return chain
}

func TestBasicGasPricerOctileMonotonicity(t *testing.T) {
	chain := buildPricedChain(t, [][]int64{
		{100, 200, 300},
		{150, 250},
		{500},
		{100, 100, 400},
	})

	gp := NewBasicGasPricer(CheapestPrice, DefaultPrice, nil)
	gp.Update(chain)

	octiles := gp.Octiles()
	for i := 0; i < 8; i++ {
		require.LessOrEqual(t, octiles[i].Cmp(octiles[i+1]), 0,
			"octile %d (%v) > octile %d (%v)", i, octiles[i], i+1, octiles[i+1])
	}
	// The flanks are the observed extremes.
	require.Equal(t, big.NewInt(100), octiles[0])
	require.Equal(t, big.NewInt(500), octiles[8])
}

func TestBasicGasPricerZeroVariance(t *testing.T) {
	chain := buildPricedChain(t, [][]int64{
		{100, 100},
		{100},
	})

	gp := NewBasicGasPricer(CheapestPrice, DefaultPrice, nil)
	gp.Update(chain)

	// All prices identical: octile k is (k+1)*mean/5.
	octiles := gp.Octiles()
	for i := 0; i < 9; i++ {
		want := big.NewInt(int64(i+1) * 100 / 5)
		require.Equal(t, want, octiles[i], "octile %d", i)
	}
}

func TestBasicGasPricerEmptyChainKeepsOctiles(t *testing.T) {
	chain := newTestChain(t, testGenesis())

	gp := NewBasicGasPricer(CheapestPrice, DefaultPrice, big.NewInt(9))
	gp.Update(chain)
	require.Equal(t, big.NewInt(9), gp.Ask())
}
