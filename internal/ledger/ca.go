package ledger

import (
	"fmt"

	"github.com/hyperledger/fabric-sdk-go/pkg/client/msp"
	"github.com/hyperledger/fabric-sdk-go/pkg/fabsdk"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
)

// CAService registers and enrolls ledger identities for verified recyclers,
// so recycling certificates are submitted under the recycler's own identity.
type CAService struct {
	sdk       *fabsdk.FabricSDK
	caName    string
	orgName   string
	adminUser string
}

func NewCAService(sdk *fabsdk.FabricSDK, caName, orgName, adminUser string) *CAService {
	return &CAService{
		sdk:       sdk,
		caName:    caName,
		orgName:   orgName,
		adminUser: adminUser,
	}
}

// EnrollRecycler registers a new identity for the recycler with the CA, enrolls
// it, and stores the resulting cert/key pair into the server wallet. It returns
// the enrollment ID to persist on the recycler document.
func (s *CAService) EnrollRecycler(wallet *gateway.Wallet, enrollmentID, affiliation string) error {
	ctxProvider := s.sdk.Context(fabsdk.WithUser(s.adminUser), fabsdk.WithOrg(s.orgName))
	mspClient, err := msp.New(ctxProvider, msp.WithCAInstance(s.caName))
	if err != nil {
		return fmt.Errorf("failed to create msp client: %w", err)
	}

	if err := s.ensureAffiliation(mspClient, affiliation); err != nil {
		return fmt.Errorf("failed to ensure affiliation %s: %w", affiliation, err)
	}

	secret, err := mspClient.Register(&msp.RegistrationRequest{
		Name:        enrollmentID,
		Type:        "client",
		Affiliation: affiliation,
		Attributes: []msp.Attribute{
			{Name: "role", Value: "recycler", ECert: true},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to register identity %s: %w", enrollmentID, err)
	}

	if err := mspClient.Enroll(enrollmentID, msp.WithSecret(secret)); err != nil {
		return fmt.Errorf("failed to enroll identity %s: %w", enrollmentID, err)
	}

	signingIdentity, err := mspClient.GetSigningIdentity(enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to get signing identity: %w", err)
	}

	key, err := signingIdentity.PrivateKey().Bytes()
	if err != nil {
		return fmt.Errorf("failed to get private key bytes: %w", err)
	}

	identity := gateway.NewX509Identity(s.orgName+"MSP", string(signingIdentity.EnrollmentCertificate()), string(key))
	if err := wallet.Put(enrollmentID, identity); err != nil {
		return fmt.Errorf("failed to save identity to wallet: %w", err)
	}

	return nil
}

func (s *CAService) ensureAffiliation(mspClient *msp.Client, target string) error {
	affiliations, err := mspClient.GetAllAffiliations()
	if err != nil {
		return fmt.Errorf("failed to get affiliations: %w", err)
	}

	var exists func(target string, aff msp.AffiliationInfo) bool
	exists = func(target string, aff msp.AffiliationInfo) bool {
		if aff.Name == target {
			return true
		}
		for _, child := range aff.Affiliations {
			if exists(target, child) {
				return true
			}
		}
		return false
	}

	for _, aff := range affiliations.Affiliations {
		if exists(target, aff) {
			return nil
		}
	}

	_, err = mspClient.AddAffiliation(&msp.AffiliationRequest{
		Name:  target,
		Force: true,
	})
	if err != nil {
		return fmt.Errorf("failed to add affiliation %s: %w", target, err)
	}
	return nil
}
