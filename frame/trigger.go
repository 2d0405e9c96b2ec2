// Copyright 2023 The foxsi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"golang.org/x/xerrors"
)

// decodeTrigger decodes the byte-swapped words of one trigger,
// start marker included, into trg.
func decodeTrigger(trg *Trigger, ws []uint32) error {
	if len(ws) < headerLen {
		return xerrors.Errorf(
			"short trigger header (got=%d words, want>=%d): %w",
			len(ws), headerLen, ErrCorruptTrigger,
		)
	}

	trg.TI = ws[1]
	trg.Livetime = ws[2]
	trg.IntegralLivetime = uint16(ws[3] >> 16)
	trg.Pseudo = ws[3]&0x1 != 0
	trg.ForceTrig = ws[3]&0x2 != 0
	trg.BGO = uint8((ws[3] & 0x3c) >> 2)
	trg.HitPattern = uint16((ws[3] & 0xffc0) >> 6)
	trg.Ext1TI[0] = ws[4]
	trg.Ext1TI[1] = ws[5]
	trg.PseudoCounter = ws[6]

	br := newBitReader(ws[headerLen:])
	for i := range trg.ASICs {
		decodeASIC(&br, &trg.ASICs[i])
		if br.err != nil {
			return xerrors.Errorf(
				"could not decode ASIC-%d block (bits=%d): %v: %w",
				i, br.len(), br.err, ErrCorruptTrigger,
			)
		}
		// blocks are word aligned and separated by one word.
		br.align(32)
		br.skip(32)
	}

	return nil
}

func decodeASIC(br *bitReader, asic *ASIC) {
	*asic = ASIC{}
	asic.Tag = uint8(br.ReadBits(4))
	asic.Flag = uint8(br.ReadBits(1))
	if !asic.Full() {
		return
	}

	asic.Bitmap = br.ReadBits(ASICChannels)
	for ch := 0; ch < ASICChannels; ch++ {
		if asic.Bitmap&(1<<uint(ASICChannels-1-ch)) == 0 {
			continue
		}
		asic.Index[asic.Hits] = uint8(ch)
		asic.Hits++
	}
	asic.Mark = uint8(br.ReadBits(1))
	asic.Ref = br.ReadSample(sampleBits)
	for i := 0; i < asic.Hits; i++ {
		asic.ADC[i] = br.ReadSample(sampleBits)
	}
	asic.CMN = br.ReadSample(sampleBits)
	asic.Status = uint8(br.ReadBits(1))
}

// encodeTrigger is the mirror of decodeTrigger.
// It returns the byte-swapped trigger words, start marker included.
func encodeTrigger(trg *Trigger) ([]uint32, error) {
	var w3 uint32
	w3 |= uint32(trg.IntegralLivetime) << 16
	w3 |= uint32(trg.HitPattern&0x3ff) << 6
	w3 |= uint32(trg.BGO&0xf) << 2
	if trg.ForceTrig {
		w3 |= 0x2
	}
	if trg.Pseudo {
		w3 |= 0x1
	}

	bw := bitWriter{
		ws: []uint32{
			bswap(trigStart),
			trg.TI,
			trg.Livetime,
			w3,
			trg.Ext1TI[0],
			trg.Ext1TI[1],
			trg.PseudoCounter,
		},
		pos: 32 * headerLen,
	}

	for i := range trg.ASICs {
		asic := &trg.ASICs[i]
		bw.WriteBits(uint64(asic.Tag&0xf), 4)
		bw.WriteBits(uint64(asic.Flag), 1)
		if asic.Full() {
			if asic.Hits < 0 || asic.Hits > ASICChannels {
				return nil, xerrors.Errorf("frame: invalid ASIC-%d number of hits %d", i, asic.Hits)
			}
			var bitmap uint64
			for j, ch := range asic.Index[:asic.Hits] {
				if ch >= ASICChannels || (j > 0 && ch <= asic.Index[j-1]) {
					return nil, xerrors.Errorf(
						"frame: invalid ASIC-%d channel list %v",
						i, asic.Index[:asic.Hits],
					)
				}
				bitmap |= 1 << uint(ASICChannels-1-int(ch))
			}
			bw.WriteBits(bitmap, ASICChannels)
			bw.WriteBits(uint64(asic.Mark), 1)
			bw.WriteSample(asic.Ref, sampleBits)
			for _, adc := range asic.ADC[:asic.Hits] {
				bw.WriteSample(adc, sampleBits)
			}
			bw.WriteSample(asic.CMN, sampleBits)
			bw.WriteBits(uint64(asic.Status), 1)
		}
		bw.align(32)
		bw.skip(32)
	}

	for i, w := range bw.ws {
		if bswap(w) == trigEnd {
			return nil, xerrors.Errorf("frame: trigger word %d holds the end marker", i)
		}
	}
	return bw.ws, nil
}
