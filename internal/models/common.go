package models

// Address là một object có cấu trúc để lưu thông tin địa chỉ nhận rác điện tử.
type Address struct {
	FullText string `bson:"fullText" json:"fullText"`
	City     string `bson:"city" json:"city"`
	State    string `bson:"state" json:"state"`
	Pincode  string `bson:"pincode" json:"pincode"`
}

// MediaPointer đại diện cho một tài liệu media được lưu trữ trên S3 hoặc dịch vụ tương tự.
type MediaPointer struct {
	ID       string `bson:"id" json:"id"`             // ID duy nhất trong hệ thống
	URL      string `bson:"url" json:"url"`           // URL truy cập tài liệu
	FileName string `bson:"fileName" json:"fileName"` // Tên file gốc
	FileType string `bson:"fileType" json:"fileType"` // Loại file, ví dụ: "image/png", "application/pdf"
}

type Weight struct {
	Value float64 `bson:"value" json:"value"`
	Unit  string  `bson:"unit" json:"unit"` // e.g., kg, g
}
