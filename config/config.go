// server/config/config.go
package config

import (
	"github.com/spf13/viper"
)

// --- Các struct con, phản ánh cấu trúc của YAML ---

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

// FabricConfig cấu hình sổ cái lưu ký (custody ledger) trên Hyperledger Fabric.
// Nếu ConnectionProfile rỗng thì server chạy không có ledger.
type FabricConfig struct {
	ChannelName       string `mapstructure:"channelName"`
	ChaincodeName     string `mapstructure:"chaincodeName"`
	OrgName           string `mapstructure:"orgName"`
	CAName            string `mapstructure:"caName"`
	UserName          string `mapstructure:"userName"`
	ConnectionProfile string `mapstructure:"connectionProfile"`
	UserCertPath      string `mapstructure:"userCertPath"`
	UserKeyDir        string `mapstructure:"userKeyDir"`
}

type PaymentConfig struct {
	AccessToken string `mapstructure:"accessToken"`
	MockMode    bool   `mapstructure:"mockMode"`
}

type OTPConfig struct {
	ExpiryMinutes int `mapstructure:"expiryMinutes"`
}

// --- Struct Config chính, bao gồm tất cả các struct con ---

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	S3      S3Config      `mapstructure:"s3"`
	Fabric  FabricConfig  `mapstructure:"fabric"`
	Payment PaymentConfig `mapstructure:"payment"`
	OTP     OTPConfig     `mapstructure:"otp"`
}

// LoadConfig đọc cấu hình từ file và ghi đè bằng các biến môi trường.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.dbName", "MONGO_DBNAME")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	viper.BindEnv("s3.bucket", "S3_BUCKET")
	viper.BindEnv("s3.region", "S3_REGION")
	viper.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	viper.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	viper.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	viper.BindEnv("fabric.channelName", "FABRIC_CHANNEL_NAME")
	viper.BindEnv("fabric.chaincodeName", "FABRIC_CHAINCODE_NAME")
	viper.BindEnv("fabric.orgName", "FABRIC_ORG_NAME")
	viper.BindEnv("fabric.caName", "FABRIC_CA_NAME")
	viper.BindEnv("fabric.userName", "FABRIC_USER_NAME")
	viper.BindEnv("fabric.connectionProfile", "FABRIC_CONNECTION_PROFILE")
	viper.BindEnv("fabric.userCertPath", "FABRIC_USER_CERT_PATH")
	viper.BindEnv("fabric.userKeyDir", "FABRIC_USER_KEY_DIR")
	viper.BindEnv("payment.accessToken", "MERCADOPAGO_ACCESS_TOKEN")
	viper.BindEnv("payment.mockMode", "PAYMENT_GATEWAY_MOCK")
	viper.BindEnv("otp.expiryMinutes", "OTP_EXPIRY_MINUTES")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("otp.expiryMinutes", 10)

	// Đọc file config.yaml
	// Nếu file không tồn tại, Viper sẽ chỉ sử dụng các biến môi trường.
	err = viper.ReadInConfig()
	if err != nil {
		// Chỉ trả về lỗi nếu đó không phải là lỗi "không tìm thấy file"
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return
}
