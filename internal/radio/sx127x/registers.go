package sx127x

// SX127x LoRa-mode register map (subset used by this driver).
const (
	regFifo              = 0x00
	regOpMode            = 0x01
	regFrfMsb            = 0x06
	regFrfMid            = 0x07
	regFrfLsb            = 0x08
	regPaConfig          = 0x09
	regLna               = 0x0C
	regFifoAddrPtr       = 0x0D
	regFifoTxBaseAddr    = 0x0E
	regFifoRxBaseAddr    = 0x0F
	regFifoRxCurrentAddr = 0x10
	regIrqFlags          = 0x12
	regRxNbBytes         = 0x13
	regPktSnrValue       = 0x19
	regPktRssiValue      = 0x1A
	regModemConfig1      = 0x1D
	regModemConfig2      = 0x1E
	regPreambleMsb       = 0x20
	regPreambleLsb       = 0x21
	regPayloadLength     = 0x22
	regMaxPayloadLength  = 0x23
	regModemConfig3      = 0x26
	regSyncWord          = 0x39
	regDioMapping1       = 0x40
	regVersion           = 0x42
	regPaDac             = 0x4D
)

// RegOpMode fields.
const (
	opModeLongRange = 0x80 // LoRa mode, writable in sleep only
	opModeSleep     = 0x00
	opModeStandby   = 0x01
	opModeTx        = 0x03
	opModeRxCont    = 0x05
	opModeMask      = 0x07
)

// RegIrqFlags bits.
const (
	irqRxDone          = 0x40
	irqPayloadCrcError = 0x20
	irqTxDone          = 0x08
)

// RegDioMapping1: DIO0 function in bits 7:6.
const (
	dio0RxDone = 0x00
	dio0TxDone = 0x40
)

// chipVersion is the silicon revision RegVersion reports for the SX1276/77/78/79.
const chipVersion = 0x12

// rssiOffsetHF converts RegPktRssiValue to dBm on the high-frequency port.
const rssiOffsetHF = -157
