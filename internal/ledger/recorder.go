package ledger

import (
	"log"
	"strconv"
	"time"
)

// Recorder submits custody events and recycling certificates to the ledger.
// A nil Recorder is valid and records nothing, so the workflow can run without
// a configured Fabric network.
type Recorder struct {
	setup *Setup
}

func NewRecorder(setup *Setup) *Recorder {
	if setup == nil {
		return nil
	}
	return &Recorder{setup: setup}
}

// RecordCustodyEvent ghi một lần chuyển trạng thái pickup lên sổ cái lưu ký.
// Lỗi ledger không chặn nghiệp vụ chính: chỉ log lại để đối soát sau.
func (r *Recorder) RecordCustodyEvent(pickupID, from, to, actor string) {
	if r == nil || r.setup == nil {
		return
	}

	_, err := r.setup.Contract.SubmitTransaction(
		"RecordCustodyEvent",
		pickupID,
		from,
		to,
		actor,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("CRITICAL: failed to record custody event for pickup %s (%s -> %s): %v", pickupID, from, to, err)
	}
}

// IssueCertificate phát hành chứng nhận tái chế on-chain khi pickup được Verified.
// Nếu recycler đã có ledger identity thì ký dưới danh tính của recycler đó.
func (r *Recorder) IssueCertificate(pickupID, recyclerID, recyclerEnrollmentID string, finalAmount float64) {
	if r == nil || r.setup == nil {
		return
	}

	contract := r.setup.Contract
	if recyclerEnrollmentID != "" && r.setup.Wallet.Exists(recyclerEnrollmentID) {
		gw, err := r.setup.GetGatewayForIdentity(recyclerEnrollmentID)
		if err != nil {
			log.Printf("CRITICAL: failed to open ledger gateway for %s, falling back to service identity: %v", recyclerEnrollmentID, err)
		} else {
			defer gw.Close()
			if network, err := gw.GetNetwork(r.setup.Channel); err == nil {
				contract = network.GetContract(r.setup.Chaincode)
			}
		}
	}

	_, err := contract.SubmitTransaction(
		"IssueRecyclingCertificate",
		pickupID,
		recyclerID,
		strconv.FormatFloat(finalAmount, 'f', 2, 64),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("CRITICAL: failed to issue recycling certificate for pickup %s: %v", pickupID, err)
	}
}
