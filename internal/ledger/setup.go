// server/internal/ledger/setup.go
package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	"recycle-it-api-server/config"

	fabconfig "github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/fabsdk"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
)

// Setup giữ kết nối tới kênh lưu ký (custody channel) trên Hyperledger Fabric.
// Mọi chuyển trạng thái quan trọng của pickup và chứng nhận tái chế đều được
// ghi on-chain để phục vụ kiểm toán chuỗi lưu ký rác điện tử.
type Setup struct {
	Gateway   *gateway.Gateway
	Contract  *gateway.Contract
	SDK       *fabsdk.FabricSDK
	Wallet    *gateway.Wallet
	Channel   string
	Chaincode string
}

func Initialize(cfg config.FabricConfig) (*Setup, error) {
	os.Setenv("DISCOVERY_AS_LOCALHOST", "true")

	fsWallet, err := gateway.NewFileSystemWallet("wallet")
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if err := loadServiceIdentity(fsWallet, cfg); err != nil {
		return nil, fmt.Errorf("failed to load service identity into wallet: %w", err)
	}

	sdk, err := fabsdk.New(fabconfig.FromFile(filepath.Clean(cfg.ConnectionProfile)))
	if err != nil {
		return nil, fmt.Errorf("failed to create fabsdk instance: %w", err)
	}

	gw, err := gateway.Connect(
		gateway.WithSDK(sdk),
		gateway.WithIdentity(fsWallet, cfg.UserName),
	)
	if err != nil {
		sdk.Close()
		return nil, fmt.Errorf("failed to connect to gateway: %w", err)
	}

	network, err := gw.GetNetwork(cfg.ChannelName)
	if err != nil {
		gw.Close()
		sdk.Close()
		return nil, fmt.Errorf("failed to get network: %w", err)
	}

	contract := network.GetContract(cfg.ChaincodeName)

	return &Setup{
		Gateway:   gw,
		Contract:  contract,
		SDK:       sdk,
		Wallet:    fsWallet,
		Channel:   cfg.ChannelName,
		Chaincode: cfg.ChaincodeName,
	}, nil
}

// loadServiceIdentity nạp cert + private key của danh tính dịch vụ vào wallet
// nếu chưa có. MSP ID suy ra từ tên org (<org>MSP).
func loadServiceIdentity(wallet *gateway.Wallet, cfg config.FabricConfig) error {
	if wallet.Exists(cfg.UserName) {
		return nil
	}

	cert, err := os.ReadFile(filepath.Clean(cfg.UserCertPath))
	if err != nil {
		return err
	}

	key, err := readPrivateKey(cfg.UserKeyDir)
	if err != nil {
		return err
	}

	identity := gateway.NewX509Identity(cfg.OrgName+"MSP", string(cert), string(key))
	return wallet.Put(cfg.UserName, identity)
}

// readPrivateKey đọc file key duy nhất trong thư mục MSP keystore
// (tên file do CA sinh ra nên không đoán trước được).
func readPrivateKey(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		return os.ReadFile(filepath.Join(dir, entry.Name()))
	}
	return nil, fmt.Errorf("no private key found in directory %s", dir)
}

// GetGatewayForIdentity tạo một kết nối Gateway mới dùng danh tính của một recycler
// đã được enroll (để chứng nhận tái chế được ký dưới danh tính của chính recycler đó).
func (s *Setup) GetGatewayForIdentity(enrollmentID string) (*gateway.Gateway, error) {
	gw, err := gateway.Connect(
		gateway.WithSDK(s.SDK),
		gateway.WithIdentity(s.Wallet, enrollmentID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway for identity %s: %w", enrollmentID, err)
	}
	return gw, nil
}

func (s *Setup) Close() {
	if s == nil {
		return
	}
	if s.Gateway != nil {
		s.Gateway.Close()
	}
	if s.SDK != nil {
		s.SDK.Close()
	}
}
