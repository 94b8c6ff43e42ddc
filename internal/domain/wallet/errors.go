package wallet

import "errors"

var (
	// ErrWalletNotFound ウォレットが見つからない
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrInvalidWalletID ウォレットIDが無効
	ErrInvalidWalletID = errors.New("invalid wallet id")
)
