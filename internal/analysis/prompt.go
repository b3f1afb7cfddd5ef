package analysis

import "strings"

// promptTemplate is the fixed instruction block sent to the model. The
// transcript replaces {{TRANSCRIPT}} verbatim.
const promptTemplate = `Tu tarea es procesar una transcripción en la que una persona habla sobre su vida diaria y reflexiones personales. Debes seguir estos pasos:

Resumen Ordenado:

Lee cuidadosamente la transcripción proporcionada.
Genera un resumen ordenado y coherente que capture los puntos clave y reflexiones más importantes.
Asegúrate de que el resumen sea claro y facilite la comprensión de las ideas principales expresadas en la transcripción.

Clasificación del Estado Emocional:

Analiza el tono y contenido emocional de la transcripción.

Clasifica el estado emocional general como uno de los siguientes (SOLO COMO UNO DE LOS SIGUIENTES Y NO FUERA DE ELLOS):
    Felicidad: Una sensación de bienestar, alegría y satisfacción.
    Tristeza: Un estado de melancolía o aflicción.
    Ira: Sentimiento intenso de enojo o frustración.
    Miedo: Estado de alarma o aprehensión ante un peligro percibido.
    Ansiedad: Preocupación o nerviosismo constante frente a situaciones inciertas.
    Amor: Sentimiento profundo de afecto o conexión emocional.
    Sorpresa: Reacción emocional ante algo inesperado o imprevisto.
    Vergüenza: Sentimiento de incomodidad por haber hecho algo que no cumple con las expectativas sociales o propias.
    Esperanza: Confianza en que algo deseado o positivo ocurrirá en el futuro.
    Orgullo: Satisfacción personal por los logros propios o de otros cercanos.

Generación de una Pregunta de Seguimiento:

    Crea una pregunta que pueda ser enviada al usuario como notificación horas después, relacionada con los temas o eventos mencionados en la transcripción.
    La pregunta debe ser personalizada y mostrar interés genuino en el progreso o bienestar del usuario.

Realiza un análisis detallado de la transcripción para extraer información que ayude a construir un perfil del usuario.

    Identifica aspectos como:
        Intereses y Pasatiempos: Actividades o temas que el usuario disfruta o menciona frecuentemente.
        Metas y Aspiraciones: Objetivos personales o profesionales que el usuario está tratando de alcanzar.
        Desafíos y Preocupaciones: Dificultades o inquietudes que el usuario está enfrentando.
        Valores y Creencias: Principios o convicciones que son importantes para el usuario.
        Patrones Emocionales: Tendencias en el estado emocional del usuario a lo largo del tiempo.
    Este análisis debe ser respetuoso y orientado a comprender mejor al usuario para mejorar futuras interacciones.

Salida en Formato JSON:

    title: Un título conciso para la entrada de la bitácora.
    summary: El resumen que has generado.
    emotion_state: "Felicidad", "Tristeza", "Ira", "Miedo", "Ansiedad", "Amor", "Sorpresa", "Vergüenza", "Esperanza", "Orgullo"
    follow_up_question: La pregunta de seguimiento que has creado.
    analysis: El análisis detallado realizado para el perfil del usuario.

Notas Adicionales:

    Asegúrate de que el resumen sea original y no simplemente una copia de partes de la transcripción.
    Si la transcripción menciona múltiples emociones, elige la que predomine en el texto.
    La pregunta de seguimiento debe ser relevante y personalizada según el contenido de la transcripción.
    El análisis para el perfil debe ser objetivo y basado únicamente en la información proporcionada en la transcripción.

Texto: "{{TRANSCRIPT}}"

Responde en formato JSON con exactamente estas claves: title, summary, emotion_state, follow_up_question, analysis`

// BuildPrompt returns the single-turn analysis prompt for transcript.
func BuildPrompt(transcript string) string {
	return strings.Replace(promptTemplate, "{{TRANSCRIPT}}", transcript, 1)
}
