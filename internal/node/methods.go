package node

import (
	"context"
	"encoding/json"

	"github.com/dmagro/ethlog/internal/ethval"
)

// GetBlockNumber calls eth_blockNumber.
func (n *Node) GetBlockNumber(ctx context.Context) (ethval.NodeResponse[ethval.UInt64], *ethval.Err) {
	resp, size, elapsed, errk := n.call(ctx, "eth_blockNumber")
	if errk != nil {
		return ethval.NodeResponse[ethval.UInt64]{}, errk
	}
	var hexStr string
	if errk := decodeResult(resp.Result, &hexStr); errk != nil {
		return ethval.NodeResponse[ethval.UInt64]{}, errk
	}
	num, err := ethval.ParseHexUint64(hexStr)
	if err != nil {
		return ethval.NodeResponse[ethval.UInt64]{}, ethval.NewErr(ethval.EthBadResponse, err.Error())
	}
	return ethval.NodeResponse[ethval.UInt64]{Data: num, Size: size, Elapsed: elapsed}, nil
}

type wireBlock struct {
	Number       string   `json:"number"`
	Timestamp    string   `json:"timestamp"`
	Transactions []string `json:"transactions"`
}

// GetBlockByNumber calls eth_getBlockByNumber(blockNum, false). A null
// result (block not mined yet) surfaces as ETH_NO_BLOCK.
func (n *Node) GetBlockByNumber(ctx context.Context, blockNum ethval.UInt64) (ethval.NodeResponse[ethval.Block], *ethval.Err) {
	resp, size, elapsed, errk := n.call(ctx, "eth_getBlockByNumber", blockNum.ToHex(), false)
	if errk != nil {
		return ethval.NodeResponse[ethval.Block]{}, errk
	}
	if isNull(resp.Result) {
		return ethval.NodeResponse[ethval.Block]{}, ethval.NewErr(ethval.EthNoBlock, "missing or not mined yet")
	}
	var wb wireBlock
	if errk := decodeResult(resp.Result, &wb); errk != nil {
		return ethval.NodeResponse[ethval.Block]{}, errk
	}
	block, err := wb.toBlock()
	if err != nil {
		return ethval.NodeResponse[ethval.Block]{}, ethval.NewErr(ethval.EthBadResponse, err.Error())
	}
	return ethval.NodeResponse[ethval.Block]{Data: block, Size: size, Elapsed: elapsed}, nil
}

func (wb wireBlock) toBlock() (ethval.Block, error) {
	number, err := ethval.ParseHexUint64(wb.Number)
	if err != nil {
		return ethval.Block{}, err
	}
	ts, err := ethval.ParseHexUint64(wb.Timestamp)
	if err != nil {
		return ethval.Block{}, err
	}
	txs := make([]ethval.ByteData32, len(wb.Transactions))
	for i, h := range wb.Transactions {
		b32, err := ethval.FromHex32(h)
		if err != nil {
			return ethval.Block{}, err
		}
		txs[i] = b32
	}
	return ethval.Block{
		Number:       number,
		Timestamp:    ethval.NewTimestamp(ts.Value() * 1000),
		Transactions: txs,
	}, nil
}

type wireTransaction struct {
	Hash             string `json:"hash"`
	From             string `json:"from"`
	To               string `json:"to"`
	BlockNumber      string `json:"blockNumber"`
	TransactionIndex string `json:"transactionIndex"`
}

// GetTransactionByHash calls eth_getTransactionByHash. A null result
// surfaces as ETH_NO_TRANSACTION.
func (n *Node) GetTransactionByHash(ctx context.Context, hash ethval.ByteData32) (ethval.NodeResponse[ethval.Transaction], *ethval.Err) {
	resp, size, elapsed, errk := n.call(ctx, "eth_getTransactionByHash", hash.ToHex())
	if errk != nil {
		return ethval.NodeResponse[ethval.Transaction]{}, errk
	}
	if isNull(resp.Result) {
		return ethval.NodeResponse[ethval.Transaction]{}, ethval.NewErr(ethval.EthNoTransaction, "missing or not mined yet")
	}
	var wt wireTransaction
	if errk := decodeResult(resp.Result, &wt); errk != nil {
		return ethval.NodeResponse[ethval.Transaction]{}, errk
	}
	tx, err := wt.toTransaction()
	if err != nil {
		return ethval.NodeResponse[ethval.Transaction]{}, ethval.NewErr(ethval.EthBadResponse, err.Error())
	}
	return ethval.NodeResponse[ethval.Transaction]{Data: tx, Size: size, Elapsed: elapsed}, nil
}

func (wt wireTransaction) toTransaction() (ethval.Transaction, error) {
	hash, err := ethval.FromHex32(wt.Hash)
	if err != nil {
		return ethval.Transaction{}, err
	}
	from, err := ethval.FromHexAddress(wt.From)
	if err != nil {
		return ethval.Transaction{}, err
	}
	to, err := ethval.FromHexAddress(wt.To)
	if err != nil {
		return ethval.Transaction{}, err
	}
	blockNum, err := ethval.ParseHexUint64(wt.BlockNumber)
	if err != nil {
		return ethval.Transaction{}, err
	}
	txIndex, err := ethval.ParseHexUint64(wt.TransactionIndex)
	if err != nil {
		return ethval.Transaction{}, err
	}
	idx, err := ethval.NewUInt16(txIndex.Value())
	if err != nil {
		return ethval.Transaction{}, err
	}
	return ethval.Transaction{
		Hash:             hash,
		From:             from,
		To:               to,
		BlockNumber:      blockNum,
		TransactionIndex: idx,
	}, nil
}

type wireLog struct {
	Address          string   `json:"address"`
	BlockNumber      string   `json:"blockNumber"`
	LogIndex         string   `json:"logIndex"`
	TransactionIndex string   `json:"transactionIndex"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	BlockHash        string   `json:"blockHash"`
	TransactionHash  string   `json:"transactionHash"`
}

// GetLogs calls eth_getLogs(filter) and returns the raw matching logs
// (unwrapped — SafeNode is responsible for assembling a LogSegment
// with range/safety metadata). The non-standard literal "0x" some
// nodes send for an empty log data field decodes as empty bytes
// rather than being rejected as malformed.
func (n *Node) GetLogs(ctx context.Context, filter ethval.LogFilter) (ethval.NodeResponse[[]ethval.Log], *ethval.Err) {
	resp, size, elapsed, errk := n.call(ctx, "eth_getLogs", encodeFilter(filter))
	if errk != nil {
		return ethval.NodeResponse[[]ethval.Log]{}, errk
	}
	var wireLogs []wireLog
	if errk := decodeResult(resp.Result, &wireLogs); errk != nil {
		return ethval.NodeResponse[[]ethval.Log]{}, errk
	}
	logs := make([]ethval.Log, len(wireLogs))
	for i, wl := range wireLogs {
		l, err := wl.toLog()
		if err != nil {
			return ethval.NodeResponse[[]ethval.Log]{}, ethval.NewErr(ethval.EthBadResponse, err.Error())
		}
		logs[i] = l
	}
	return ethval.NodeResponse[[]ethval.Log]{Data: logs, Size: size, Elapsed: elapsed}, nil
}

func (wl wireLog) toLog() (ethval.Log, error) {
	address, err := ethval.FromHexAddress(wl.Address)
	if err != nil {
		return ethval.Log{}, err
	}
	blockNum, err := ethval.ParseHexUint64(wl.BlockNumber)
	if err != nil {
		return ethval.Log{}, err
	}
	logIdxU, err := ethval.ParseHexUint64(wl.LogIndex)
	if err != nil {
		return ethval.Log{}, err
	}
	logIdx, err := ethval.NewUInt16(logIdxU.Value())
	if err != nil {
		return ethval.Log{}, err
	}
	txIdxU, err := ethval.ParseHexUint64(wl.TransactionIndex)
	if err != nil {
		return ethval.Log{}, err
	}
	txIdx, err := ethval.NewUInt16(txIdxU.Value())
	if err != nil {
		return ethval.Log{}, err
	}
	topics := make([]ethval.ByteData32, len(wl.Topics))
	for i, t := range wl.Topics {
		b32, err := ethval.FromHex32(t)
		if err != nil {
			return ethval.Log{}, err
		}
		topics[i] = b32
	}
	topicCombo, err := ethval.NewLogTopicCombination(topics)
	if err != nil {
		return ethval.Log{}, err
	}
	// Log.data tolerates the literal "0x" as empty bytes: the one
	// field where the tolerant decoder is used instead of the strict one.
	data, err := ethval.FromBadHex(wl.Data)
	if err != nil {
		return ethval.Log{}, err
	}
	blockHash, err := ethval.FromHex32(wl.BlockHash)
	if err != nil {
		return ethval.Log{}, err
	}
	txHash, err := ethval.FromHex32(wl.TransactionHash)
	if err != nil {
		return ethval.Log{}, err
	}
	return ethval.Log{
		Address:          address,
		BlockNumber:      blockNum,
		LogIndex:         logIdx,
		TransactionIndex: txIdx,
		Topics:           topicCombo,
		Data:             data,
		BlockHash:        blockHash,
		TransactionHash:  txHash,
	}, nil
}

// wireLogFilter is the eth_getLogs filter wire shape: fromBlock/toBlock
// as hex, address as an array of hex addresses, topics as a mixed
// array where each position is either a single hex string or an array
// of hex strings (disjunctive match).
type wireLogFilter struct {
	FromBlock string      `json:"fromBlock"`
	ToBlock   string      `json:"toBlock"`
	Address   []string    `json:"address,omitempty"`
	Topics    []any       `json:"topics,omitempty"`
}

func encodeFilter(f ethval.LogFilter) wireLogFilter {
	addrs := make([]string, len(f.Addresses))
	for i, a := range f.Addresses {
		addrs[i] = a.ToHex()
	}
	positions := f.Topics.Positions()
	var topics []any
	for _, p := range positions {
		if p.IsWildcard() {
			topics = append(topics, nil)
			continue
		}
		values := p.Values()
		if len(values) == 1 {
			topics = append(topics, values[0].ToHex())
			continue
		}
		hexes := make([]string, len(values))
		for i, v := range values {
			hexes[i] = v.ToHex()
		}
		topics = append(topics, hexes)
	}
	return wireLogFilter{
		FromBlock: f.FromBlock.ToHex(),
		ToBlock:   f.ToBlock.ToHex(),
		Address:   addrs,
		Topics:    topics,
	}
}

// Call performs a generic JSON-RPC call (e.g. eth_call), returning the
// raw decoded result for the caller to interpret via an abiproto.Coder.
func (n *Node) Call(ctx context.Context, method string, params ...interface{}) (ethval.NodeResponse[json.RawMessage], *ethval.Err) {
	resp, size, elapsed, errk := n.call(ctx, method, params...)
	if errk != nil {
		return ethval.NodeResponse[json.RawMessage]{}, errk
	}
	return ethval.NodeResponse[json.RawMessage]{Data: resp.Result, Size: size, Elapsed: elapsed}, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := string(raw)
	return trimmed == "" || trimmed == "null"
}
