package dwhdmiqp

// HandleIRQ services the controller interrupt. It must be called every time
// the interrupt line fires and never blocks. The line may be shared: the
// return value reports whether the controller had any interrupt pending.
func (tx *TX) HandleIRQ() bool {
	stat := tx.bus.Read(regMainUnit1IntStatus)

	i2cStat := stat & (regMainUnit1I2CMOpDone | regMainUnit1I2CMReadReq | regMainUnit1I2CMNack)
	if i2cStat != 0 {
		tx.bus.Write(regMainUnit1IntClear, i2cStat)
		tx.ddc.complete(i2cStat)
	}

	return stat != 0
}
