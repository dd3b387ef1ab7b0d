package dwhdmiqp

import "github.com/oxplot/go-hdmi/regbus"

// RegisterLayout is the register bus layout of the controller.
var RegisterLayout = regbus.Config{
	Stride:      4,
	MaxRegister: regEARCRX1IntForce,
}

const (
	regTimerBaseConfig0 = 0x0080

	regScrambConfig0 = 0x0960

	regLinkConfig0       = 0x0968
	regLinkConfig0OpmDVI = 1 << 4

	regPktSchedPktEn         = 0x0aa8
	regPktSchedPktEnDRMITxEn = 1 << 17
	regPktSchedPktEnAVITxEn  = 1 << 13
	regPktSchedPktEnGCPTxEn  = 1 << 3

	regPktSchedPktConfig1    = 0x0ab0
	regPktSchedDRMIFieldRate = 1 << 13
	regPktSchedAVIFieldRate  = 1 << 12

	regPktAVIContents0  = 0x0e20
	regPktAVIContents1  = 0x0e24
	regPktDRMIContents0 = 0x0e80
	regPktDRMIContents1 = 0x0e84

	regI2CMSMSCLConfig0 = 0x0eb0
	regI2CMFMSCLConfig0 = 0x0eb4
	regI2CMConfig0      = 0x0eb8

	regI2CMControl0        = 0x0ebc
	regI2CMControl0SWReset = 0x01

	regI2CMStatus0 = 0x0ec0

	regI2CMIfControl0         = 0x0ec4
	regI2CMIfControl0Addr     = 0xff000 // register address on the slave
	regI2CMIfControl0AddrPos  = 12
	regI2CMIfControl0Slave    = 0x00fe0
	regI2CMIfControl0SlavePos = 5
	regI2CMIfControl0WrMask   = 0x0001e
	regI2CMIfControl0Ext      = 1 << 4 // extended (segment) read
	regI2CMIfControl0Short    = 1 << 3
	regI2CMIfControl0Read     = 1 << 2
	regI2CMIfControl0Write    = 1 << 1
	regI2CMIfControl0FMEn     = 1 << 0

	regI2CMIfControl1          = 0x0ec8
	regI2CMIfControl1SegPtr    = 0x7f80
	regI2CMIfControl1SegPtrPos = 7
	regI2CMIfControl1SegAddr   = 0x007f

	regI2CMIfWrData03 = 0x0ecc
	regI2CMIfRdData03 = 0x0edc

	regHDCP2LogicConfig0       = 0x2000
	regHDCP2LogicConfig0Bypass = 1 << 0

	regMainUnit0IntStatus = 0x4010
	regMainUnit0IntMaskN  = 0x4014
	regMainUnit0IntClear  = 0x4018

	regMainUnit1IntStatus = 0x4020
	regMainUnit1IntMaskN  = 0x4024
	regMainUnit1IntClear  = 0x4028
	regMainUnit1IntForce  = 0x402c

	// Same bit positions in the status, mask and clear registers.
	regMainUnit1I2CMOpDone  = 1 << 0
	regMainUnit1I2CMReadReq = 1 << 1
	regMainUnit1I2CMNack    = 1 << 2

	regEARCRX1IntForce = 0x4860
)

const (
	timerBaseHz    = 428571429
	i2cmFMSCLTimes = 0x085c085c // fast mode SCL high and low counts

	pktAVIContentsRegs  = 4 // after contents0
	pktDRMIContentsRegs = 7 // after contents0
)
