// Package audio decodes lecture recordings into mono float samples and cuts
// them into the fixed-duration chunks consumed by the session pipeline.
//
// WAV input is decoded with github.com/go-audio/wav and FLAC input with
// github.com/mewkiz/flac. EncodeFLAC produces compact uploads for the
// transcription provider.
//
//	clip, err := audio.DecodeFile("lecture.wav")
//	chunks := audio.NewChunker(clip, 2*time.Second)
//	defer chunks.Close()
//	for {
//	    c, ok, err := chunks.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    p.ProcessChunk(ctx, c.AnalysisChunk(""))
//	}
package audio
