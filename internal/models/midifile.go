package models

// MidiFileRequest lists the streams written into one Standard MIDI File.
type MidiFileRequest struct {
	NoteTracks  [][]NoteEvent  `json:"note_tracks"`
	ChordTracks [][]ChordEvent `json:"chord_tracks"`
	CCTracks    []CCTrack      `json:"cc_tracks"`
}

// CCTrack is a CC stream bound to one controller number.
type CCTrack struct {
	Controller int       `json:"controller"`
	Channel    int       `json:"channel"`
	Events     []CCEvent `json:"events"`
}
