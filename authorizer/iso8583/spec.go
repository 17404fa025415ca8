package iso8583

import (
	"fmt"
	"io"

	"github.com/moov-io/iso8583"
	"github.com/moov-io/iso8583/encoding"
	"github.com/moov-io/iso8583/field"
	"github.com/moov-io/iso8583/network"
	"github.com/moov-io/iso8583/padding"
	"github.com/moov-io/iso8583/prefix"
)

const (
	MTIAuthorizationRequest  = "0100"
	MTIAuthorizationResponse = "0110"

	// response codes used when no decision could be made
	ResponseCodeFormatError       = "30"
	ResponseCodeSystemMalfunction = "96"

	processingCodePurchase = "000000"
)

var spec = &iso8583.MessageSpec{
	Name: "Benefit Card Authorization",
	Fields: map[int]field.Field{
		0: field.NewString(&field.Spec{
			Length:      4,
			Description: "Message Type Indicator",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
		1: field.NewBitmap(&field.Spec{
			Length:      8,
			Description: "Bitmap",
			Enc:         encoding.Binary,
			Pref:        prefix.Binary.Fixed,
		}),
		2: field.NewString(&field.Spec{
			Length:      28,
			Description: "Account Identifier",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.LL,
		}),
		3: field.NewString(&field.Spec{
			Length:      6,
			Description: "Processing Code",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
		4: field.NewNumeric(&field.Spec{
			Length:      12,
			Description: "Transaction Amount (minor units)",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
			Pad:         padding.Left('0'),
		}),
		7: field.NewString(&field.Spec{
			Length:      10,
			Description: "Transmission Date & Time",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
		11: field.NewString(&field.Spec{
			Length:      6,
			Description: "Systems Trace Audit Number (STAN)",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
		18: field.NewString(&field.Spec{
			Length:      4,
			Description: "Merchant Category Code",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
		38: field.NewString(&field.Spec{
			Length:      6,
			Description: "Authorization Identification Response",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
		39: field.NewString(&field.Spec{
			Length:      2,
			Description: "Response Code",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.Fixed,
		}),
		43: field.NewString(&field.Spec{
			Length:      99,
			Description: "Card Acceptor Name/Location",
			Enc:         encoding.ASCII,
			Pref:        prefix.ASCII.LL,
		}),
	},
}

// AuthorizationRequest is the 0100 message.
type AuthorizationRequest struct {
	MTI                  *field.String  `index:"0"`
	AccountID            *field.String  `index:"2"`
	ProcessingCode       *field.String  `index:"3"`
	Amount               *field.Numeric `index:"4"`
	TransmissionDateTime *field.String  `index:"7"`
	STAN                 *field.String  `index:"11"`
	MCC                  *field.String  `index:"18"`
	CardAcceptor         *field.String  `index:"43"`
}

// AuthorizationResponse is the 0110 message.
type AuthorizationResponse struct {
	MTI                  *field.String  `index:"0"`
	AccountID            *field.String  `index:"2"`
	ProcessingCode       *field.String  `index:"3"`
	Amount               *field.Numeric `index:"4"`
	TransmissionDateTime *field.String  `index:"7"`
	STAN                 *field.String  `index:"11"`
	AuthorizationCode    *field.String  `index:"38"`
	ResponseCode         *field.String  `index:"39"`
}

// Messages are framed with a 2 byte binary length header.
func readMessageLength(r io.Reader) (int, error) {
	header := network.NewBinary2BytesHeader()
	n, err := header.ReadFrom(r)
	if err != nil {
		return n, err
	}
	return header.Length(), nil
}

func writeMessageLength(w io.Writer, length int) (int, error) {
	if length > 0xFFFF {
		return 0, fmt.Errorf("message length %d exceeds 2 byte header", length)
	}
	header := network.NewBinary2BytesHeader()
	header.SetLength(length)
	return header.WriteTo(w)
}

func stringValue(f *field.String) string {
	if f == nil {
		return ""
	}
	return f.Value()
}
