package relaygrp

// relayWithdraw is the signed withdrawal an employee hands to the relayer.
type relayWithdraw struct {
	StreamID  uint64 `json:"stream_id" validate:"required"`
	Nonce     uint64 `json:"nonce"`
	Deadline  uint64 `json:"deadline" validate:"required"`
	Signature string `json:"signature" validate:"required,hexadecimal"`
}
