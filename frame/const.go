// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

const (
	syncWord = 0x00efcdab // frame sync marker (low 24 bits)
	syncMask = 0x00ffffff

	hkType  = 0x03 // housekeeping frame type
	evtType = 0x02 // event frame type

	// Terminator ends housekeeping payloads and event frames.
	Terminator = 0x2301ffff

	trigStart     = 0x3c3c     // trigger start marker (low 16 bits)
	trigStartMask = 0x0000ffff // trigger start marker mask
	trigEnd       = 0x77770000 // trigger end marker

	modeMask   = 0x4 // full-mode bit of the ASIC block tag
	sampleBits = 10  // width of ADC, reference and common-mode samples
	headerLen  = 7   // number of trigger header words, start marker included
)

const (
	EventFrameLen      = 8194 // number of words of an event frame, after its sync word
	MaxTriggerLen      = 2048 // max number of words of a trigger
	MaxHousekeepingLen = 8192 // max number of words of a housekeeping payload

	NumASICs     = 4   // number of ASICs read out per trigger
	ASICChannels = 64  // number of channels of an ASIC
	SideWidth    = 128 // number of strips of a detector side
	Sentinel     = 128 // strip index of padding entries

	// TIClockInterval is the period of the trigger clock counter, in seconds.
	TIClockInterval = 10.24e-6
)
